package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aura-cds/antibiogram-api/config"
	"github.com/aura-cds/antibiogram-api/data"
	"github.com/aura-cds/antibiogram-api/handlers"
	"github.com/aura-cds/antibiogram-api/health"
	"github.com/aura-cds/antibiogram-api/interfaces"
	"github.com/aura-cds/antibiogram-api/knowledge"
	"github.com/aura-cds/antibiogram-api/logging"
	"github.com/aura-cds/antibiogram-api/pipeline"
	"github.com/aura-cds/antibiogram-api/scheduler"
	"github.com/aura-cds/antibiogram-api/server"
	"github.com/aura-cds/antibiogram-api/validation"
)

func main() {
	// Read env variables from the working directory, falling back to the
	// executable directory for packaged deployments
	if err := godotenv.Load(); err != nil {
		if ex, exErr := os.Executable(); exErr == nil {
			if chErr := os.Chdir(filepath.Dir(ex)); chErr == nil {
				_ = godotenv.Load()
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetention("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	container := data.NewClinicalDataContainer()
	container.SetServerStartTime(time.Now())

	source := knowledge.NewFileSource(cfg.CatalogPath, cfg.ModelPath)

	sched := scheduler.NewScheduler(container, source)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	var narrator interfaces.Narrator
	if cfg.NarratorAPIKey != "" {
		narrator = pipeline.NewChatNarrator(
			cfg.NarratorURL,
			cfg.NarratorAPIKey,
			cfg.NarratorModel,
			time.Duration(cfg.NarratorTimeoutMS)*time.Millisecond,
		)
		logging.Info("Narration enabled", "model", cfg.NarratorModel)
	} else {
		logging.Info("Narration disabled, no API key configured")
	}

	p := pipeline.New(container, narrator)
	handler := handlers.NewHTTPHandler(p, container, validation.NewRequestValidator(), health.NewHealthChecker(container))

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
