package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/pkg/response"
)

type RuleHandler struct {
	rules *services.RuleService
}

func NewRuleHandler(rules *services.RuleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

// List returns the published rulebook.
// GET /api/rules
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.rules.Published(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rules)
}
