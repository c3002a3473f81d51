package services

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services/checklist"
	"gorm.io/gorm"
)

var digestDay = time.Date(2025, 3, 10, 0, 0, 0, 0, brt)

func newTestDigestService(t *testing.T, db *gorm.DB, notifier Notifier, units ...string) *DigestService {
	t.Helper()
	if len(units) == 0 {
		units = []string{"SM01", "CB02"}
	}
	svc := NewDigestService(db, checklist.NewRoster(units), newTestParser(), notifier, brt)
	svc.now = fixedClock(time.Date(2025, 3, 10, 8, 30, 0, 0, brt))
	return svc
}

func TestDigestBuild_TwoUnitRoster(t *testing.T) {
	db := newTestDB(t)
	addSubmission(t, db, "sm 1", "🚫 Maca\n✅ Monitor — Obs: bateria fraca\n✅ Prancha", digestDay.Add(7*time.Hour))
	svc := newTestDigestService(t, db, okNotifier())

	digest, err := svc.Build(context.Background(), digestDay)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	expected := strings.Join([]string{
		"Checklist USA — 2025-03-10 — 08:30",
		"Sem envio: CB02",
		"",
		"Faltas/Obs:",
		"• SM01",
		"  Faltas: Maca",
		"  Obs: Monitor: bateria fraca",
	}, "\n")
	if digest.Message != expected {
		t.Errorf("message =\n%s\nexpected\n%s", digest.Message, expected)
	}
	if digest.Date != "2025-03-10" {
		t.Errorf("Date = %q", digest.Date)
	}
	if !reflect.DeepEqual(digest.MissingUnits, []string{"CB02"}) {
		t.Errorf("MissingUnits = %v", digest.MissingUnits)
	}
	if len(digest.FlaggedLines) != 3 {
		t.Errorf("FlaggedLines = %q", digest.FlaggedLines)
	}
}

func TestDigestBuild_NothingToReport(t *testing.T) {
	db := newTestDB(t)
	addSubmission(t, db, "SM-01", "✅ Maca", digestDay.Add(9*time.Hour))
	addSubmission(t, db, "cb2", "✅ Prancha", digestDay.Add(10*time.Hour))
	svc := newTestDigestService(t, db, okNotifier())

	digest, err := svc.Build(context.Background(), digestDay)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	expected := "Checklist USA — 2025-03-10 — 08:30\nSem envio: (nenhuma) ✅\n\nFaltas/Obs: (nenhuma sinalizada)"
	if digest.Message != expected {
		t.Errorf("message = %q", digest.Message)
	}
	if len(digest.MissingUnits) != 0 || len(digest.FlaggedLines) != 0 {
		t.Errorf("unexpected lists %v %v", digest.MissingUnits, digest.FlaggedLines)
	}
}

func TestDigestBuild_LatestSubmissionWins(t *testing.T) {
	db := newTestDB(t)
	addSubmission(t, db, "SM01", "🚫 Maca", digestDay.Add(6*time.Hour))
	addSubmission(t, db, "SM01", "✅ Maca", digestDay.Add(12*time.Hour))
	// Outside the day and outside the roster: both ignored.
	addSubmission(t, db, "CB02", "✅ Maca", digestDay.Add(-time.Hour))
	addSubmission(t, db, "ZZ99", "🚫 Tudo", digestDay.Add(8*time.Hour))
	svc := newTestDigestService(t, db, okNotifier())

	digest, err := svc.Build(context.Background(), digestDay)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(digest.FlaggedLines) != 0 {
		t.Errorf("older submission leaked into the digest: %q", digest.FlaggedLines)
	}
	if !reflect.DeepEqual(digest.MissingUnits, []string{"CB02"}) {
		t.Errorf("MissingUnits = %v", digest.MissingUnits)
	}
}

func TestDigestBuild_BlocksSeparatedByBlankLine(t *testing.T) {
	db := newTestDB(t)
	addSubmission(t, db, "SM01", "🚫 Maca", digestDay.Add(6*time.Hour))
	addSubmission(t, db, "CB02", "✅ Monitor — Obs: sem cabo", digestDay.Add(6*time.Hour))
	svc := newTestDigestService(t, db, okNotifier())

	digest, err := svc.Build(context.Background(), digestDay)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	expected := []string{"• SM01", "  Faltas: Maca", "", "• CB02", "  Obs: Monitor: sem cabo"}
	if !reflect.DeepEqual(digest.FlaggedLines, expected) {
		t.Errorf("FlaggedLines = %q, expected %q", digest.FlaggedLines, expected)
	}
}

func TestNormalizeSlot(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "manual"},
		{"   ", "manual"},
		{" morning ", "morning"},
		{strings.Repeat("x", 40), strings.Repeat("x", 32)},
	}
	for _, tt := range tests {
		if got := NormalizeSlot(tt.in); got != tt.want {
			t.Errorf("NormalizeSlot(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func digestLogs(t *testing.T, db *gorm.DB) []models.DigestLog {
	t.Helper()
	var logs []models.DigestLog
	if err := db.Order("id").Find(&logs).Error; err != nil {
		t.Fatalf("failed to load digest logs: %v", err)
	}
	return logs
}

func TestDispatch_IdempotentPerSlot(t *testing.T) {
	db := newTestDB(t)
	notifier := okNotifier("100", "200")
	svc := newTestDigestService(t, db, notifier)
	ctx := context.Background()

	first := svc.Dispatch(ctx, digestDay, "morning", false)
	if !first.OK || first.Skipped {
		t.Fatalf("first dispatch = %+v", first)
	}
	if !reflect.DeepEqual(first.SentTo, []string{"100", "200"}) {
		t.Errorf("SentTo = %v", first.SentTo)
	}

	second := svc.Dispatch(ctx, digestDay, "morning", false)
	if !second.OK || !second.Skipped || second.Reason != DigestReasonAlreadySent {
		t.Errorf("second dispatch = %+v", second)
	}
	if notifier.calls() != 1 {
		t.Errorf("notifier called %d times, expected 1", notifier.calls())
	}

	other := svc.Dispatch(ctx, digestDay, "evening", false)
	if other.Skipped {
		t.Error("a different slot must not be skipped")
	}

	logs := digestLogs(t, db)
	if len(logs) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(logs))
	}
	if logs[0].Status != models.DigestStatusSuccess || logs[0].Recipient != "100,200" || logs[0].Slot != "morning" {
		t.Errorf("unexpected log row %+v", logs[0])
	}
	if !strings.HasPrefix(logs[0].Message, "Checklist USA — 2025-03-10") {
		t.Errorf("Message = %q", logs[0].Message)
	}
}

func TestDispatch_ForceResends(t *testing.T) {
	db := newTestDB(t)
	notifier := okNotifier("100")
	svc := newTestDigestService(t, db, notifier)
	ctx := context.Background()

	svc.Dispatch(ctx, digestDay, "", false)
	result := svc.Dispatch(ctx, digestDay, "manual", true)

	if !result.OK || result.Skipped {
		t.Errorf("forced dispatch = %+v", result)
	}
	if notifier.calls() != 2 {
		t.Errorf("notifier called %d times, expected 2", notifier.calls())
	}
	if logs := digestLogs(t, db); len(logs) != 1 {
		t.Errorf("expected a single (date, slot) row, got %d", len(logs))
	}
}

func TestDispatch_FailureIsRecordedAndRetried(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{result: SendResult{SentTo: []string{}, Error: "HTTP 403: Forbidden"}}
	svc := newTestDigestService(t, db, notifier)
	ctx := context.Background()

	result := svc.Dispatch(ctx, digestDay, "morning", false)
	if result.OK || result.Error != "HTTP 403: Forbidden" {
		t.Errorf("dispatch = %+v", result)
	}

	logs := digestLogs(t, db)
	if len(logs) != 1 || logs[0].Status != models.DigestStatusError || logs[0].Error != "HTTP 403: Forbidden" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	notifier.result = SendResult{OK: true, SentTo: []string{"100"}}
	retry := svc.Dispatch(ctx, digestDay, "morning", false)
	if !retry.OK || retry.Skipped {
		t.Errorf("retry = %+v", retry)
	}
	logs = digestLogs(t, db)
	if len(logs) != 1 || logs[0].Status != models.DigestStatusSuccess || logs[0].Error != "" {
		t.Errorf("log row not updated: %+v", logs)
	}
}

func TestDispatch_LogWriteFailureDoesNotChangeResult(t *testing.T) {
	db := newTestDB(t)
	notifier := okNotifier("100")
	svc := newTestDigestService(t, db, notifier)
	if err := db.Migrator().DropTable(&models.DigestLog{}); err != nil {
		t.Fatalf("DropTable() error: %v", err)
	}

	result := svc.Dispatch(context.Background(), digestDay, "morning", false)

	if !result.OK || result.Skipped {
		t.Errorf("dispatch = %+v", result)
	}
	if notifier.calls() != 1 {
		t.Errorf("notifier called %d times", notifier.calls())
	}
}

func TestDispatch_BuildFailureIsReported(t *testing.T) {
	db := newTestDB(t)
	notifier := okNotifier("100")
	svc := newTestDigestService(t, db, notifier)
	if err := db.Migrator().DropTable(&models.ChecklistSubmission{}); err != nil {
		t.Fatalf("DropTable() error: %v", err)
	}

	result := svc.Dispatch(context.Background(), digestDay, "morning", false)

	if result.OK || result.Error == "" {
		t.Errorf("dispatch = %+v", result)
	}
	if notifier.calls() != 0 {
		t.Error("nothing should be sent when the digest cannot be built")
	}
	logs := digestLogs(t, db)
	if len(logs) != 1 || logs[0].Status != models.DigestStatusError {
		t.Errorf("unexpected logs %+v", logs)
	}
}

func TestDigestLogs_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newTestDigestService(t, db, okNotifier("100"))
	ctx := context.Background()

	svc.Dispatch(ctx, digestDay, "morning", false)
	svc.Dispatch(ctx, digestDay.AddDate(0, 0, 1), "morning", false)

	logs, err := svc.Logs(ctx, 0)
	if err != nil {
		t.Fatalf("Logs() error: %v", err)
	}
	if len(logs) != 2 || logs[0].Date != "2025-03-11" {
		t.Errorf("logs = %+v", logs)
	}
}
