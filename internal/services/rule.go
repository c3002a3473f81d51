package services

import (
	"context"

	"github.com/samuq/backend/internal/models"
	"gorm.io/gorm"
)

const maxPublishedRules = 500

type RuleBulletView struct {
	ID   uint     `json:"id"`
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

type RuleCardView struct {
	ID      uint             `json:"id"`
	Title   string           `json:"title"`
	Bullets []RuleBulletView `json:"bullets"`
}

type RuleView struct {
	ID       uint           `json:"id"`
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	Category string         `json:"category"`
	Cards    []RuleCardView `json:"cards"`
}

type RuleService struct {
	db *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

// Published returns the public rulebook: published rules by (order, title), their
// published cards by (order, id), and every bullet of a card by (order, id) with its tag names.
func (s *RuleService) Published(ctx context.Context) ([]RuleView, error) {
	var rules []models.Rule
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Preload("Category").
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_published = ?", true).Order("sort_order ASC, id ASC")
		}).
		Preload("Cards.Bullets", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Cards.Bullets.Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC")
		}).
		Order("sort_order ASC, title ASC").
		Limit(maxPublishedRules).
		Find(&rules).Error
	if err != nil {
		return nil, persistenceError("failed to load rules", err)
	}

	views := make([]RuleView, 0, len(rules))
	for _, r := range rules {
		view := RuleView{ID: r.ID, Title: r.Title, Slug: r.Slug, Cards: []RuleCardView{}}
		if r.Category != nil {
			view.Category = r.Category.Name
		}
		for _, c := range r.Cards {
			card := RuleCardView{ID: c.ID, Title: c.Title, Bullets: []RuleBulletView{}}
			for _, b := range c.Bullets {
				tags := make([]string, 0, len(b.Tags))
				for _, t := range b.Tags {
					tags = append(tags, t.Name)
				}
				card.Bullets = append(card.Bullets, RuleBulletView{ID: b.ID, Text: b.Text, Tags: tags})
			}
			view.Cards = append(view.Cards, card)
		}
		views = append(views, view)
	}
	return views, nil
}
