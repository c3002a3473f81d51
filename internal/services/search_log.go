package services

import (
	"context"
	"errors"
	"time"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/utils"
	"github.com/samuq/backend/pkg/logger"
	"gorm.io/gorm"
)

// SearchDedupWindow is how long a logged term suppresses new entries for the same word.
const SearchDedupWindow = 2 * time.Hour

// Reasons reported when a search phrase is not processed at all.
const (
	SearchReasonNonZeroResults = "non_zero_results"
	SearchReasonNoTokens       = "no_tokens"
)

type SearchLogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSearchLogService(db *gorm.DB) *SearchLogService {
	return &SearchLogService{db: db, now: time.Now}
}

// SearchLogMeta identifies the requester without keeping the raw address.
type SearchLogMeta struct {
	IP        string
	UserAgent string
}

type SearchLogResult struct {
	Skipped       bool
	Reason        string
	Logged        []string
	IgnoredShort  []string
	IgnoredRecent []string
}

// Log records the words of a search that returned nothing. Words under four
// characters and words already logged within SearchDedupWindow are reported but not stored.
// Storage failures for individual words are joined into the returned error while the
// remaining words are still processed.
func (s *SearchLogService) Log(ctx context.Context, phrase string, resultsCount int, meta SearchLogMeta) (*SearchLogResult, error) {
	result := &SearchLogResult{Logged: []string{}, IgnoredShort: []string{}, IgnoredRecent: []string{}}
	if resultsCount != 0 {
		result.Skipped = true
		result.Reason = SearchReasonNonZeroResults
		return result, nil
	}

	terms := extractTerms(phrase)
	if len(terms) == 0 {
		result.Skipped = true
		result.Reason = SearchReasonNoTokens
		return result, nil
	}

	now := s.now().UTC()
	cutoff := now.Add(-SearchDedupWindow)
	ipHash := utils.HashIP(meta.IP)
	userAgent := utils.Truncate(meta.UserAgent, 300)

	var errs []error
	for _, term := range terms {
		if isShortTerm(term) {
			result.IgnoredShort = append(result.IgnoredShort, term)
			continue
		}

		stored := utils.Truncate(term, maxTermLength)
		key := utils.Truncate(foldTerm(term), maxTermLength)
		recent := false
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.SearchLogEntry{}).
				Where("term_key = ? AND created_at >= ?", key, cutoff).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				recent = true
				return nil
			}
			return tx.Create(&models.SearchLogEntry{
				Term:         stored,
				TermKey:      key,
				ResultsCount: 0,
				CreatedAt:    now,
				IPHash:       ipHash,
				UserAgent:    userAgent,
			}).Error
		})
		if err != nil {
			logger.Warn().Err(err).Str("term", stored).Msg("[SearchLog] Failed to record term")
			errs = append(errs, err)
			continue
		}
		if recent {
			result.IgnoredRecent = append(result.IgnoredRecent, term)
		} else {
			result.Logged = append(result.Logged, term)
		}
	}

	if len(errs) > 0 {
		return result, persistenceError("failed to record search terms", errors.Join(errs...))
	}
	return result, nil
}

// Recent lists the latest logged terms, newest first.
func (s *SearchLogService) Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.SearchLogEntry
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, persistenceError("failed to list search terms", err)
	}
	return entries, nil
}
