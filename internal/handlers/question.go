package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/middleware"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/pkg/response"
)

type QuestionHandler struct {
	questions  *services.QuestionService
	askedTerms *services.AskedTermService
}

func NewQuestionHandler(questions *services.QuestionService, askedTerms *services.AskedTermService) *QuestionHandler {
	return &QuestionHandler{questions: questions, askedTerms: askedTerms}
}

type AskQuestionResponse struct {
	OK bool `json:"ok"`
	ID uint `json:"id"`
}

// Ask stores a citizen question.
// POST /api/questions
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req services.AskQuestionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid payload")
		return
	}

	q, err := h.questions.Ask(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, AskQuestionResponse{OK: true, ID: q.ID})
}

// List is the staff question inbox.
// GET /api/inbox/questions
func (h *QuestionHandler) List(c *gin.Context) {
	var req services.QuestionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	list, err := h.questions.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Detail GET /api/inbox/questions/:id
func (h *QuestionHandler) Detail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	q, err := h.questions.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, q)
}

// MarkReviewed POST /api/inbox/questions/:id/reviewed
func (h *QuestionHandler) MarkReviewed(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	q, err := h.questions.MarkReviewed(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	services.LogInfo("Questions", "reviewed", "Question marked as reviewed", &userID, c.ClientIP(), c.Request.UserAgent(),
		map[string]interface{}{"question_id": q.ID})
	response.Success(c, q)
}

// TopTerms lists the most asked words.
// GET /api/asked-terms
func (h *QuestionHandler) TopTerms(c *gin.Context) {
	terms, err := h.askedTerms.Top(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, terms)
}
