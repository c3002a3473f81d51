package models

import "time"

// Category groups rules on the public rulebook
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:140;uniqueIndex;not null" json:"slug"`
}

// Tag labels rule bullets
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Kind string `gorm:"size:20;default:outros" json:"kind"` // processo, seguranca, comunicacao, juridico, operacional, outros
}

// Rule is a rulebook topic made of cards
type Rule struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Slug        string     `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	CategoryID  *uint      `json:"category_id"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Body        string     `gorm:"type:text" json:"body"`
	IsPublished bool       `gorm:"default:true;index:idx_rule_published_order" json:"is_published"`
	SortOrder   int        `gorm:"default:0;index:idx_rule_published_order" json:"order"`
	Cards       []RuleCard `gorm:"foreignKey:RuleID" json:"cards,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RuleCard is one card of a rule
type RuleCard struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RuleID      uint         `gorm:"index;not null" json:"rule_id"`
	Title       string       `gorm:"size:200" json:"title"`
	SortOrder   int          `gorm:"default:0;index" json:"order"`
	IsPublished bool         `gorm:"default:true" json:"is_published"`
	Bullets     []RuleBullet `gorm:"foreignKey:CardID" json:"bullets,omitempty"`
}

// RuleBullet is one line of a card
type RuleBullet struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CardID    uint   `gorm:"index;not null" json:"card_id"`
	Text      string `gorm:"type:text;not null" json:"text"`
	SortOrder int    `gorm:"default:0;index" json:"order"`
	Tags      []Tag  `gorm:"many2many:rule_bullet_tags" json:"tags,omitempty"`
}

func (Category) TableName() string   { return "categories" }
func (Tag) TableName() string        { return "tags" }
func (Rule) TableName() string       { return "rules" }
func (RuleCard) TableName() string   { return "rule_cards" }
func (RuleBullet) TableName() string { return "rule_bullets" }
