package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arttech/assistant-gateway/internal/classifier"
	"github.com/arttech/assistant-gateway/internal/config"
	"github.com/arttech/assistant-gateway/internal/generation"
	retrievalmem "github.com/arttech/assistant-gateway/internal/retrieval/memory"
	"github.com/arttech/assistant-gateway/internal/router"
	"github.com/arttech/assistant-gateway/internal/server"
	"github.com/arttech/assistant-gateway/internal/storage"
	storagemem "github.com/arttech/assistant-gateway/internal/storage/memory"
	storagesqlite "github.com/arttech/assistant-gateway/internal/storage/sqlite"
	"github.com/arttech/assistant-gateway/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("assistant-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store storage.SessionStore
	switch cfg.Storage.Type {
	case "sqlite":
		store, err = storagesqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open session store: %v", err)
		}
		logger.Info("session store ready", slog.String("type", "sqlite"), slog.String("path", cfg.Storage.SQLite.Path))
	default:
		store = storagemem.New()
		logger.Info("session store ready", slog.String("type", "memory"))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close session store", slog.String("error", err.Error()))
		}
	}()

	index := retrievalmem.New()
	if cfg.Retrieval.IndexPath != "" {
		if err := index.LoadFile(cfg.Retrieval.IndexPath); err != nil {
			log.Fatalf("Failed to load retrieval corpus: %v", err)
		}
		logger.Info("retrieval corpus loaded", slog.String("path", cfg.Retrieval.IndexPath))
	} else {
		logger.Warn("no retrieval corpus configured, specialists will decline policy questions")
	}

	generator := generation.New(cfg.Generation.BaseURL, cfg.Generation.Model)

	engine := router.New(store, index, generator, classifier.New(), logger, router.Config{
		TopK:          cfg.Retrieval.TopK,
		HistoryBudget: cfg.Generation.HistoryBudget,
	})

	srv := server.New(cfg.Server.Port, logger, engine, store, index)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping gateway...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Gateway shutdown complete")
}
