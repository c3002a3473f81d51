package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/samuq/backend/internal/models"
	"gorm.io/gorm"
)

func countSearchLogs(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.SearchLogEntry{}).Count(&n).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	return n
}

func TestSearchLog_SkipsSearchesWithResults(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchLogService(db)

	result, err := svc.Log(context.Background(), "parada cardiaca", 1, SearchLogMeta{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if !result.Skipped || result.Reason != SearchReasonNonZeroResults {
		t.Errorf("result = %+v", result)
	}
	if n := countSearchLogs(t, db); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

func TestSearchLog_NoTokens(t *testing.T) {
	svc := NewSearchLogService(newTestDB(t))

	result, err := svc.Log(context.Background(), "  ?!  ", 0, SearchLogMeta{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if !result.Skipped || result.Reason != SearchReasonNoTokens {
		t.Errorf("result = %+v", result)
	}
}

func TestSearchLog_ShortWordsAndDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchLogService(db)

	result, err := svc.Log(context.Background(), "dor no Peito peito PEITO", 0, SearchLogMeta{IP: "10.0.0.1", UserAgent: "test"})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if !reflect.DeepEqual(result.Logged, []string{"Peito"}) {
		t.Errorf("Logged = %v", result.Logged)
	}
	if !reflect.DeepEqual(result.IgnoredShort, []string{"dor", "no"}) {
		t.Errorf("IgnoredShort = %v", result.IgnoredShort)
	}

	var entry models.SearchLogEntry
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("First() error: %v", err)
	}
	if entry.Term != "Peito" || entry.TermKey != "peito" || entry.ResultsCount != 0 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.IPHash == "" || entry.IPHash == "10.0.0.1" {
		t.Errorf("ip should be stored hashed, got %q", entry.IPHash)
	}
}

func TestSearchLog_TwoHourWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchLogService(db)
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	svc.now = fixedClock(start)
	if _, err := svc.Log(ctx, "desfibrilador", 0, SearchLogMeta{}); err != nil {
		t.Fatalf("Log() error: %v", err)
	}

	svc.now = fixedClock(start.Add(119 * time.Minute))
	result, err := svc.Log(ctx, "DESFIBRILADOR", 0, SearchLogMeta{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if !reflect.DeepEqual(result.IgnoredRecent, []string{"DESFIBRILADOR"}) || len(result.Logged) != 0 {
		t.Errorf("inside the window: %+v", result)
	}
	if n := countSearchLogs(t, db); n != 1 {
		t.Errorf("expected 1 row inside the window, got %d", n)
	}

	svc.now = fixedClock(start.Add(2*time.Hour + time.Minute))
	result, err = svc.Log(ctx, "desfibrilador", 0, SearchLogMeta{})
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if !reflect.DeepEqual(result.Logged, []string{"desfibrilador"}) {
		t.Errorf("after the window: %+v", result)
	}
	if n := countSearchLogs(t, db); n != 2 {
		t.Errorf("expected 2 rows after the window, got %d", n)
	}
}

func TestSearchLog_Recent(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchLogService(db)
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc.now = fixedClock(start)
	svc.Log(ctx, "oxigenio", 0, SearchLogMeta{})
	svc.now = fixedClock(start.Add(time.Minute))
	svc.Log(ctx, "aspirador", 0, SearchLogMeta{})

	entries, err := svc.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 || entries[0].Term != "aspirador" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"maca, MACA; Maca", []string{"maca"}},
		{"pressão arterial", []string{"pressão", "arterial"}},
		{"o2 e SpO2", []string{"o2", "e", "SpO2"}},
		{"snake_case-word", []string{"snake_case", "word"}},
	}
	for _, tt := range tests {
		got := extractTerms(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("extractTerms(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
