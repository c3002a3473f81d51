package models

import "time"

// SearchLogEntry is a word from a search that found nothing.
type SearchLogEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Term         string    `gorm:"size:200;not null" json:"term"`
	TermKey      string    `gorm:"size:200;not null;index" json:"-"` // case-folded Term
	ResultsCount int       `gorm:"default:0" json:"results_count"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	IPHash       string    `gorm:"size:64" json:"-"`
	UserAgent    string    `gorm:"size:300" json:"user_agent"`
}

// AskedTerm counts the questions a word appeared in.
type AskedTerm struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Term      string    `gorm:"size:200;not null;uniqueIndex" json:"term"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `gorm:"index" json:"last_seen"`
}

func (SearchLogEntry) TableName() string { return "search_logs" }
func (AskedTerm) TableName() string      { return "asked_terms" }
