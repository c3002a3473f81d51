package services

import (
	"context"
	"errors"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/utils"
	"github.com/samuq/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	maxQuestionLength = 5000
	maxCategoryLength = 100
	questionPageSize  = 15
)

type QuestionService struct {
	db     *gorm.DB
	queue  TaskQueue
	policy *bluemonday.Policy
}

// NewQuestionService stores questions and hands their text to queue for term counting.
// queue may be nil, in which case no terms are counted.
func NewQuestionService(db *gorm.DB, queue TaskQueue) *QuestionService {
	return &QuestionService{db: db, queue: queue, policy: bluemonday.StrictPolicy()}
}

type AskQuestionRequest struct {
	Text     string `json:"text" form:"text"`
	Category string `json:"category" form:"category"`
}

// sanitize drops any markup and returns plain text.
func (s *QuestionService) sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

// Ask stores a citizen question and queues the term count. A queue failure is logged
// and does not fail the question.
func (s *QuestionService) Ask(ctx context.Context, req *AskQuestionRequest, ip string) (*models.Question, error) {
	text := s.sanitize(req.Text)
	category := s.sanitize(req.Category)

	switch {
	case text == "":
		return nil, validationError("Escreva sua pergunta.")
	case utf8.RuneCountInString(text) > maxQuestionLength:
		return nil, validationError("Pergunta muito longa.")
	case utf8.RuneCountInString(category) > maxCategoryLength:
		return nil, validationError("Categoria muito longa.")
	}

	question := &models.Question{
		Text:     text,
		Category: category,
		Status:   models.QuestionStatusNew,
		IPHash:   utils.HashIP(ip),
	}
	if err := s.db.WithContext(ctx).Create(question).Error; err != nil {
		return nil, persistenceError("failed to save question", err)
	}

	if s.queue != nil {
		task := &AskedTermTask{QuestionID: question.ID, Text: question.Text}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			logger.Warn().Err(err).Uint("question_id", question.ID).Msg("[Question] Failed to queue asked terms")
		}
	}
	return question, nil
}

type QuestionListRequest struct {
	Query  string `form:"q"`
	Status string `form:"status"`
	Page   int    `form:"page"`
}

type QuestionList struct {
	Items    []models.Question `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// List is the staff inbox: newest first, optional text search and status filter.
// An unknown status is ignored.
func (s *QuestionService) List(ctx context.Context, req *QuestionListRequest) (*QuestionList, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}

	query := s.db.WithContext(ctx).Model(&models.Question{})
	if q := strings.TrimSpace(req.Query); q != "" {
		query = query.Where("LOWER(text) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if status := strings.TrimSpace(req.Status); status == models.QuestionStatusNew || status == models.QuestionStatusReviewed {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, persistenceError("failed to count questions", err)
	}

	items := []models.Question{}
	if err := query.Order("id DESC").
		Offset((page - 1) * questionPageSize).
		Limit(questionPageSize).
		Find(&items).Error; err != nil {
		return nil, persistenceError("failed to list questions", err)
	}

	return &QuestionList{Items: items, Total: total, Page: page, PageSize: questionPageSize}, nil
}

func (s *QuestionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Pergunta não encontrada.")
		}
		return nil, persistenceError("failed to load question", err)
	}
	return &q, nil
}

func (s *QuestionService) MarkReviewed(ctx context.Context, id uint) (*models.Question, error) {
	q, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(q).Update("status", models.QuestionStatusReviewed).Error; err != nil {
		return nil, persistenceError("failed to update question", err)
	}
	q.Status = models.QuestionStatusReviewed
	logger.Info().Uint("question_id", q.ID).Msg("[Question] Marked as reviewed")
	return q, nil
}
