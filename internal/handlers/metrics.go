package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services"
	"gorm.io/gorm"
)

var startTime = time.Now()

type MetricsHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewMetricsHandler(db *gorm.DB, queue services.TaskQueue) *MetricsHandler {
	return &MetricsHandler{db: db, queue: queue}
}

// Metrics returns Prometheus-compatible text format metrics.
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "samuq_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "samuq_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "samuq_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		writeGauge(&b, "samuq_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
		writeGauge(&b, "samuq_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
	}

	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "samuq_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)

	ctx := c.Request.Context()
	since24h := time.Now().UTC().Add(-24 * time.Hour)

	var checklists24h, searches24h, newQuestions, digestErrors int64
	h.db.WithContext(ctx).Model(&models.ChecklistSubmission{}).Where("created_at >= ?", since24h).Count(&checklists24h)
	h.db.WithContext(ctx).Model(&models.SearchLogEntry{}).Where("created_at >= ?", since24h).Count(&searches24h)
	h.db.WithContext(ctx).Model(&models.Question{}).Where("status = ?", models.QuestionStatusNew).Count(&newQuestions)
	h.db.WithContext(ctx).Model(&models.DigestLog{}).Where("status = ?", models.DigestStatusError).Count(&digestErrors)

	writeGauge(&b, "samuq_checklists_24h", "Checklists submitted in the last 24 hours", float64(checklists24h))
	writeGauge(&b, "samuq_search_terms_24h", "Zero-result search terms logged in the last 24 hours", float64(searches24h))
	writeGauge(&b, "samuq_questions_new", "Questions waiting for review", float64(newQuestions))
	writeGauge(&b, "samuq_digest_errors", "Digest slots whose last send failed", float64(digestErrors))

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
