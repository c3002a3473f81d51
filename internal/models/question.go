package models

import "time"

const (
	QuestionStatusNew      = "new"
	QuestionStatusReviewed = "reviewed"
)

// Question is a citizen question waiting for staff review
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Category  string    `gorm:"size:100" json:"category"`
	Status    string    `gorm:"size:20;default:new;index" json:"status"` // new, reviewed
	IPHash    string    `gorm:"size:64" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string { return "questions" }
