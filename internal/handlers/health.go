package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports whether the backend can serve requests.
type HealthHandler struct {
	db       *gorm.DB
	queue    services.TaskQueue
	notifier *services.NotificationGateway
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, notifier *services.NotificationGateway) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, notifier: notifier}
}

// CheckHealth answers 503 when the database is unreachable. The notifier and queue
// are informational: the citizen-facing routes work without them.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	notifier := "not configured"
	if h.notifier != nil && h.notifier.Configured() {
		notifier = "configured"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "samuq",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"notifier":   notifier,
		},
	})
}
