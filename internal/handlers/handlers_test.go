package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/internal/services/checklist"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var brt = time.FixedZone("BRT", -3*60*60)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:handlers_"+name+"?mode=memory&cache=shared"), &gorm.Config{
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

type stubNotifier struct {
	mu     sync.Mutex
	result services.SendResult
	calls  int
}

func (s *stubNotifier) Send(ctx context.Context, text string) services.SendResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result
}

func (s *stubNotifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	notifier *stubNotifier
}

// newTestEnv wires every handler without authentication middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	roster := checklist.NewRoster([]string{"SM01", "CB02"})
	parser := checklist.NewParser(checklist.NewLabelCompactor(nil, nil))
	notifier := &stubNotifier{result: services.SendResult{OK: true, SentTo: []string{"-100"}}}

	checklists := services.NewChecklistService(db, roster, parser, services.NewHolidayService(), brt)
	digests := services.NewDigestService(db, roster, parser, notifier, brt)
	form := checklist.ParseForm([]byte("## Cabine\n- [ ] Oxigênio\n- [ ] LACRE da maleta\n"))

	checklistHandler := NewChecklistHandler(checklists, digests, roster, form)
	digestHandler := NewDigestHandler(digests)
	searchHandler := NewSearchLogHandler(services.NewSearchLogService(db))
	questionHandler := NewQuestionHandler(services.NewQuestionService(db, nil), services.NewAskedTermService(db))
	ruleHandler := NewRuleHandler(services.NewRuleService(db))

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, nil, nil).CheckHealth)
	r.GET("/metrics", NewMetricsHandler(db, nil).Metrics)
	api := r.Group("/api")
	api.POST("/checklists/submit", checklistHandler.Submit)
	api.GET("/checklists/form", checklistHandler.Form)
	api.POST("/checklists/digest/send", digestHandler.Send)
	api.GET("/checklists/digest/logs", digestHandler.Logs)
	api.GET("/inbox/checklists", checklistHandler.Inbox)
	api.GET("/inbox/checklists/digest", checklistHandler.DigestPreview)
	api.GET("/inbox/checklists/:id", checklistHandler.Detail)
	api.POST("/search-log", searchHandler.Log)
	api.GET("/inbox/search-terms", searchHandler.Recent)
	api.POST("/questions", questionHandler.Ask)
	api.GET("/inbox/questions", questionHandler.List)
	api.GET("/inbox/questions/:id", questionHandler.Detail)
	api.POST("/inbox/questions/:id/reviewed", questionHandler.MarkReviewed)
	api.GET("/asked-terms", questionHandler.TopTerms)
	api.GET("/rules", ruleHandler.List)

	return &testEnv{db: db, router: r, notifier: notifier}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("failed to decode data %s: %v", raw, err)
	}
}
