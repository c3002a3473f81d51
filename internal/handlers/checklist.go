package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/internal/services/checklist"
	"github.com/samuq/backend/pkg/response"
)

type ChecklistHandler struct {
	checklists *services.ChecklistService
	digests    *services.DigestService
	roster     *checklist.Roster
	form       []*checklist.FormGroup
}

func NewChecklistHandler(checklists *services.ChecklistService, digests *services.DigestService, roster *checklist.Roster, form []*checklist.FormGroup) *ChecklistHandler {
	if form == nil {
		form = []*checklist.FormGroup{}
	}
	return &ChecklistHandler{checklists: checklists, digests: digests, roster: roster, form: form}
}

type SubmitChecklistResponse struct {
	OK        bool      `json:"ok"`
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Submit stores a crew checklist.
// POST /api/checklists/submit
func (h *ChecklistHandler) Submit(c *gin.Context) {
	var req services.SubmitChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid JSON")
		return
	}

	sub, err := h.checklists.Submit(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, SubmitChecklistResponse{OK: true, ID: sub.ID, CreatedAt: sub.CreatedAt})
}

type ChecklistFormResponse struct {
	Groups []*checklist.FormGroup `json:"groups"`
	Units  []string               `json:"units"`
}

// Form returns the checklist definition and the roster to fill the unit picker.
// GET /api/checklists/form
func (h *ChecklistHandler) Form(c *gin.Context) {
	units := h.roster.Units()
	for i, u := range units {
		units[i] = h.roster.Display(u)
	}
	response.Success(c, ChecklistFormResponse{Groups: h.form, Units: units})
}

// Inbox is the staff view of one day of checklists.
// GET /api/inbox/checklists
func (h *ChecklistHandler) Inbox(c *gin.Context) {
	var req services.ChecklistInboxRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	inbox, err := h.checklists.Inbox(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, inbox)
}

// Detail returns one submission with its flagged lines.
// GET /api/inbox/checklists/:id
func (h *ChecklistHandler) Detail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	detail, err := h.checklists.Detail(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// DigestPreview builds the digest of a day without sending it.
// GET /api/inbox/checklists/digest
func (h *ChecklistHandler) DigestPreview(c *gin.Context) {
	day := h.digests.Today()
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		parsed, err := services.ParseDay(date, h.digests.Location())
		if err != nil {
			response.Error(c, err)
			return
		}
		day = parsed
	}

	digest, err := h.digests.Build(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, digest)
}
