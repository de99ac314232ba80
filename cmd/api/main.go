package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/team-schedule/internal/app"
	"github.com/riskibarqy/team-schedule/internal/config"
	"github.com/riskibarqy/team-schedule/internal/observability"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	providers, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("start observability", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		_ = providers.Shutdown(context.Background())
		return 1
	}

	exitCode := 0
	if err := rt.Run(ctx); err != nil {
		logger.Error("runtime stopped with error", "error", err)
		exitCode = 1
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := providers.Shutdown(flushCtx); err != nil {
		logger.Warn("stop observability failed", "error", err)
	}

	return exitCode
}
