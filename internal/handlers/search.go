package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/pkg/logger"
	"github.com/samuq/backend/pkg/response"
)

// SearchLogHandler collects the words of searches that found nothing.
type SearchLogHandler struct {
	searchLogs *services.SearchLogService
}

func NewSearchLogHandler(searchLogs *services.SearchLogService) *SearchLogHandler {
	return &SearchLogHandler{searchLogs: searchLogs}
}

type SearchLogRequest struct {
	Term         string  `json:"term"`
	ResultsCount FlexInt `json:"results_count"`
}

type IgnoredTerms struct {
	Short  []string `json:"short"`
	Recent []string `json:"recent"`
}

type SearchLogResponse struct {
	Logged      []string     `json:"logged"`
	Ignored     IgnoredTerms `json:"ignored"`
	TotalPhrase string       `json:"total_phrase"`
}

type SearchLogSkipped struct {
	Ignored bool   `json:"ignored"`
	Reason  string `json:"reason"`
}

// Log answers 201 when at least one word was stored and 200 otherwise.
// Storage failures are logged and never fail the request.
// POST /api/search-log
func (h *SearchLogHandler) Log(c *gin.Context) {
	var req SearchLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid json")
		return
	}
	phrase := strings.TrimSpace(req.Term)
	if phrase == "" {
		response.BadRequest(c, "empty term")
		return
	}

	result, err := h.searchLogs.Log(c.Request.Context(), phrase, int(req.ResultsCount), services.SearchLogMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("[SearchLog] Search terms partially recorded")
	}

	if result.Skipped {
		response.Success(c, SearchLogSkipped{Ignored: true, Reason: result.Reason})
		return
	}

	body := SearchLogResponse{
		Logged:      result.Logged,
		Ignored:     IgnoredTerms{Short: result.IgnoredShort, Recent: result.IgnoredRecent},
		TotalPhrase: phrase,
	}
	if len(result.Logged) > 0 {
		response.Created(c, body)
		return
	}
	response.Status(c, http.StatusOK, "ok", body)
}

// Recent lists the latest logged words for staff.
// GET /api/inbox/search-terms
func (h *SearchLogHandler) Recent(c *gin.Context) {
	entries, err := h.searchLogs.Recent(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}
