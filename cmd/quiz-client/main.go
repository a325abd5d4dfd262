package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/localcache"
	"github.com/SAP-F-2025/quiz-service/internal/offline"
	"github.com/SAP-F-2025/quiz-service/internal/quizclient"
	"github.com/SAP-F-2025/quiz-service/internal/remote"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout belongs to the prompt
	level := slog.LevelWarn
	if cfg.Environment == "development" {
		level = slog.LevelInfo
	}
	logger := utils.NewTextLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	handle := localcache.NewHandle(cfg.CachePath, logger)
	defer handle.Close()

	var (
		store    offline.Store
		attempts quizclient.AttemptStore
	)
	if c, err := handle.Get(ctx); err == nil {
		store, attempts = c, c
	}

	fallback, err := offline.DefaultFallback()
	if err != nil {
		return fmt.Errorf("failed to load bundled questions: %w", err)
	}

	client := remote.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	coordinator := offline.NewCoordinator(client, store, fallback, logger)
	runner := quizclient.NewRunner(coordinator, client, attempts, quizclient.Config{UserID: cfg.UserID}, logger)

	runErr := runner.Run(ctx, os.Stdin, os.Stdout)

	// flush cache refills before the deferred handle.Close
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Close(flushCtx); err != nil {
		logger.Warn("Pending cache writes did not finish", "error", err)
	}
	return runErr
}
