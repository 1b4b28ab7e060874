package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchell28/masterleague/internal/app"
	"github.com/mitchell28/masterleague/internal/config"
	"github.com/mitchell28/masterleague/internal/observability"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger := logging.NewJSONTo(os.Stderr, cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("shutdown uptrace", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	w := &worker{cfg: cfg, app: application, logger: logger, out: os.Stdout}
	if err := newCLI(w).RunContext(ctx, os.Args); err != nil {
		logger.Error("job failed", "error", err)
		return exitCode(err)
	}
	return 0
}
