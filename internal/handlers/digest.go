package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/middleware"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/pkg/logger"
	"github.com/samuq/backend/pkg/response"
)

type DigestHandler struct {
	digests *services.DigestService
}

func NewDigestHandler(digests *services.DigestService) *DigestHandler {
	return &DigestHandler{digests: digests}
}

// Send builds and delivers the checklist digest for a day and slot.
// Fields may come from the query string, a form or a JSON body.
// POST /api/checklists/digest/send
func (h *DigestHandler) Send(c *gin.Context) {
	body := map[string]interface{}{}
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, "invalid JSON")
			return
		}
	}

	day := h.digests.Today()
	if date := strings.TrimSpace(formOrJSON(c, body, "date")); date != "" {
		parsed, err := services.ParseDay(date, h.digests.Location())
		if err != nil {
			response.Error(c, err)
			return
		}
		day = parsed
	}
	slot := services.NormalizeSlot(formOrJSON(c, body, "slot"))
	force := truthy(formOrJSON(c, body, "force"))

	result := h.digests.Dispatch(c.Request.Context(), day, slot, force)

	logger.Info().
		Str("date", day.Format(services.DateLayout)).
		Str("slot", slot).
		Bool("force", force).
		Bool("ok", result.OK).
		Bool("skipped", result.Skipped).
		Str("user", middleware.GetUsername(c)).
		Msg("[Digest] Send requested")

	if !result.OK {
		response.Status(c, http.StatusInternalServerError, result.Error, result)
		return
	}
	response.Success(c, result)
}

// Logs lists recent send attempts.
// GET /api/checklists/digest/logs
func (h *DigestHandler) Logs(c *gin.Context) {
	logs, err := h.digests.Logs(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}
