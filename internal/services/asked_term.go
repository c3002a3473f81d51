package services

import (
	"context"
	"time"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AskedTermService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAskedTermService(db *gorm.DB) *AskedTermService {
	return &AskedTermService{db: db, now: time.Now}
}

// Record counts each distinct word (four characters or more) of a question once.
// Each counter row is created or incremented by a single upsert statement, and all
// words of the question commit together so a retried task never counts a word twice.
func (s *AskedTermService) Record(ctx context.Context, text string) error {
	now := s.now().UTC()
	var rows []models.AskedTerm
	for _, term := range extractTerms(text) {
		if isShortTerm(term) {
			continue
		}
		rows = append(rows, models.AskedTerm{
			Term:      utils.Truncate(term, maxTermLength),
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "term"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"count":     gorm.Expr("? + 1", clause.Column{Table: models.AskedTerm{}.TableName(), Name: "count"}),
					"last_seen": now,
				}),
			}).Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistenceError("failed to update asked terms", err)
	}
	return nil
}

// ProcessTask is the queue processor for TaskTypeAskedTerms.
func (s *AskedTermService) ProcessTask(ctx context.Context, task *AskedTermTask) error {
	return s.Record(ctx, task.Text)
}

// Top returns the most asked terms, most frequent first.
func (s *AskedTermService) Top(ctx context.Context, limit int) ([]models.AskedTerm, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var terms []models.AskedTerm
	if err := s.db.WithContext(ctx).
		Order("count DESC, last_seen DESC").
		Limit(limit).
		Find(&terms).Error; err != nil {
		return nil, persistenceError("failed to list asked terms", err)
	}
	return terms, nil
}
