// Command digest builds the checklist digest of a day and sends it through the
// configured notification transport, once per (date, slot) unless forced.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/samuq/backend/internal/config"
	"github.com/samuq/backend/internal/models"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/internal/services/checklist"
	"github.com/samuq/backend/pkg/logger"
)

const dispatchTimeout = 2 * time.Minute

func main() {
	date := flag.String("date", "", "day to report, YYYY-MM-DD (default today)")
	slot := flag.String("slot", services.DefaultDigestSlot, "slot label used for deduplication")
	force := flag.Bool("force", false, "send even if this date and slot were already sent")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	loc := cfg.App.Location()

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	compactor, err := checklist.LoadLabelCompactor(cfg.Checklist.FullPath(), cfg.Checklist.CompactPath())
	if err != nil {
		logger.Warn().Err(err).Msg("[Checklist] Failed to load label aliases")
	}
	digests := services.NewDigestService(
		models.GetDB(),
		checklist.NewRoster(cfg.Checklist.Units),
		checklist.NewParser(compactor),
		services.NewNotificationGatewayFromConfig(&cfg.Telegram),
		loc,
	)

	day := digests.Today()
	if *date != "" {
		if day, err = services.ParseDay(*date, loc); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	result := digests.Dispatch(ctx, day, *slot, *force)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error().Err(err).Msg("Failed to write result")
	}
	if !result.OK {
		cancel()
		stop()
		os.Exit(1)
	}
}
