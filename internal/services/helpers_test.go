package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services/checklist"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// brt avoids depending on the tzdata of the test machine.
var brt = time.FixedZone("BRT", -3*60*60)

// newTestDB opens a private in-memory sqlite database with every table migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func addSubmission(t *testing.T, db *gorm.DB, unit, text string, createdAt time.Time) *models.ChecklistSubmission {
	t.Helper()
	sub := &models.ChecklistSubmission{
		DoctorName: "Dra. Ana",
		Unit:       unit,
		Text:       text,
		CreatedAt:  createdAt.UTC(),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create submission: %v", err)
	}
	return sub
}

func newTestParser() *checklist.Parser {
	return checklist.NewParser(checklist.NewLabelCompactor(nil, nil))
}

// fakeTransport records deliveries and fails for the recipients listed in fail.
type fakeTransport struct {
	mu   sync.Mutex
	fail map[string]error
	sent map[string][]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: map[string]error{}, sent: map[string][]string{}}
}

func (f *fakeTransport) Send(ctx context.Context, recipient, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[recipient]; err != nil {
		return err
	}
	f.sent[recipient] = append(f.sent[recipient], text)
	return nil
}

type panicTransport struct{}

func (panicTransport) Send(ctx context.Context, recipient, text string) error {
	panic("boom")
}

// fakeNotifier returns a canned SendResult and remembers every message.
type fakeNotifier struct {
	mu       sync.Mutex
	result   SendResult
	messages []string
}

func okNotifier(recipients ...string) *fakeNotifier {
	return &fakeNotifier{result: SendResult{OK: true, SentTo: recipients}}
}

func (f *fakeNotifier) Send(ctx context.Context, text string) SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.result
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

var errDelivery = errors.New("HTTP 403: Forbidden")
