// Package main provides the HTTP server for Aisha.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aisha-chat/aisha-go/internal/chat"
	"github.com/aisha-chat/aisha-go/internal/config"
	"github.com/aisha-chat/aisha-go/internal/imaging"
	"github.com/aisha-chat/aisha-go/internal/llm"
	"github.com/aisha-chat/aisha-go/internal/memory"
	"github.com/aisha-chat/aisha-go/internal/metrics"
	"github.com/aisha-chat/aisha-go/internal/persona"
	"github.com/aisha-chat/aisha-go/internal/server"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting aisha-server",
		"addr", cfg.Addr,
		"provider", cfg.LLMProvider,
		"primary_model", cfg.PrimaryModel,
		"memory_backend", cfg.MemoryBackend,
	)

	registry, err := persona.Load(cfg.PersonaFile, logger)
	if err != nil {
		logger.Error("failed to load personas", "error", err)
		os.Exit(1)
	}

	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open memory store", "error", err)
		os.Exit(1)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		logger.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	uploads, err := imaging.NewUploadStore(cfg.UploadDir, cfg.UploadTTL, logger)
	if err != nil {
		logger.Error("failed to open upload store", "error", err)
		os.Exit(1)
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	uploads.StartSweeper(sweepCtx, cfg.SweepInterval)

	collector := metrics.NewCollector()
	engine := chat.NewEngine(registry, store, client, cfg, logger, collector)
	srv := server.New(engine, registry, store, uploads, collector, cfg, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newStore(cfg config.Config, logger *slog.Logger) (memory.Store, error) {
	opts := memory.Options{
		MaxTurns:  cfg.HistoryLimit,
		TurnRunes: cfg.TurnRunes,
	}

	if cfg.MemoryBackend == config.BackendRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return memory.NewRedisStore(ctx, redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), opts, logger)
	}
	return memory.NewFileStore(cfg.MemoryDir, opts, logger)
}
