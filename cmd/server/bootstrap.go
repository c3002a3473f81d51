package main

import (
	"context"
	"os"
	"time"

	"github.com/samuq/backend/internal/config"
	"github.com/samuq/backend/internal/handlers"
	"github.com/samuq/backend/internal/middleware"
	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/internal/services/checklist"
	"github.com/samuq/backend/internal/utils"
	"github.com/samuq/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	loc         *time.Location
	taskQueue   services.TaskQueue
	worker      *services.Worker
	scheduler   *services.DigestScheduler
	limiter     *middleware.RateLimiter
	stopCleanup context.CancelFunc

	health     *handlers.HealthHandler
	metrics    *handlers.MetricsHandler
	auth       *handlers.AuthHandler
	checklists *handlers.ChecklistHandler
	digests    *handlers.DigestHandler
	searchLogs *handlers.SearchLogHandler
	questions  *handlers.QuestionHandler
	rules      *handlers.RuleHandler
	systemLogs *handlers.SystemLogHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)
	loc := cfg.App.Location()

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}
	db := models.GetDB()

	services.InitSystemLogger(db)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	services.StartLogCleanupScheduler(cleanupCtx, db, cfg.App.LogRetentionDays)

	authService := services.NewAuthService(db, &cfg.JWT)
	if err := authService.CreateAdminIfNotExists(&cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// The alias table is built once; a missing compact file leaves it empty.
	compactor, err := checklist.LoadLabelCompactor(cfg.Checklist.FullPath(), cfg.Checklist.CompactPath())
	if err != nil {
		logger.Warn().Err(err).Msg("[Checklist] Failed to load label aliases")
	}
	logger.Info().Int("aliases", compactor.Len()).Msg("[Checklist] Label aliases loaded")

	var form []*checklist.FormGroup
	if source, err := os.ReadFile(cfg.Checklist.FullPath()); err == nil {
		form = checklist.ParseForm(source)
	} else {
		logger.Warn().Err(err).Str("path", cfg.Checklist.FullPath()).Msg("[Checklist] Checklist form not found")
	}

	roster := checklist.NewRoster(cfg.Checklist.Units)
	parser := checklist.NewParser(compactor)
	gateway := services.NewNotificationGatewayFromConfig(&cfg.Telegram)

	checklistService := services.NewChecklistService(db, roster, parser, services.NewHolidayService(), loc)
	digestService := services.NewDigestService(db, roster, parser, gateway, loc)
	askedTermService := services.NewAskedTermService(db)

	// Task queue uses Redis when enabled, otherwise runs term counting in-process.
	taskQueue := services.InitTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(askedTermService.ProcessTask)
	}
	worker := services.NewWorker(&cfg.Redis)
	if worker != nil {
		worker.SetProcessor(askedTermService.ProcessTask)
		if err := worker.Start(); err != nil {
			logger.Warn().Err(err).Msg("[Worker] Failed to start")
		}
	}

	var scheduler *services.DigestScheduler
	if cfg.Digest.ScheduleEnabled {
		scheduler = services.NewDigestScheduler(digestService, cfg.Digest.Slots, loc)
		if err := scheduler.Start(); err != nil {
			logger.Fatalf("Failed to start digest scheduler: %v", err)
		}
	}

	return &appServices{
		cfg:         cfg,
		loc:         loc,
		taskQueue:   taskQueue,
		worker:      worker,
		scheduler:   scheduler,
		limiter:     middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		stopCleanup: stopCleanup,

		health:     handlers.NewHealthHandler(db, taskQueue, gateway),
		metrics:    handlers.NewMetricsHandler(db, taskQueue),
		auth:       handlers.NewAuthHandler(authService),
		checklists: handlers.NewChecklistHandler(checklistService, digestService, roster, form),
		digests:    handlers.NewDigestHandler(digestService),
		searchLogs: handlers.NewSearchLogHandler(services.NewSearchLogService(db)),
		questions:  handlers.NewQuestionHandler(services.NewQuestionService(db, taskQueue), askedTermService),
		rules:      handlers.NewRuleHandler(services.NewRuleService(db)),
		systemLogs: handlers.NewSystemLogHandler(services.NewSystemLogService(db)),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.stopCleanup()
	s.limiter.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	if sqlDB, err := models.GetDB().DB(); err == nil {
		sqlDB.Close()
	}
}
