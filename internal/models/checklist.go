package models

import "time"

// ChecklistSubmission is one ambulance checklist as sent by the crew. Never updated.
type ChecklistSubmission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DoctorName string    `gorm:"size:120;not null" json:"doctor_name"`
	Unit       string    `gorm:"size:120;not null;index" json:"unit"` // as typed, see checklist.NormalizeUnit
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	IPHash     string    `gorm:"size:64" json:"-"`
	UserAgent  string    `gorm:"size:300" json:"user_agent"`
}

// Digest send outcomes
const (
	DigestStatusSuccess = "success"
	DigestStatusError   = "error"
)

// DigestLog records the last send attempt for a (date, slot) pair.
type DigestLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_digest_date_slot" json:"date"` // YYYY-MM-DD
	Slot      string    `gorm:"size:32;not null;uniqueIndex:idx_digest_date_slot" json:"slot"`
	SentAt    time.Time `json:"sent_at"`
	Status    string    `gorm:"size:20;index" json:"status"`
	Recipient string    `gorm:"type:text" json:"recipient"` // comma separated chat ids that got every part
	Message   string    `gorm:"type:text" json:"message"`
	Error     string    `gorm:"size:4000" json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChecklistSubmission) TableName() string { return "checklist_submissions" }
func (DigestLog) TableName() string           { return "digest_logs" }
