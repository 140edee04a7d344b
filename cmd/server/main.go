package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"depixsync/internal/application/dto"
	"depixsync/internal/infrastructure/config"
	"depixsync/internal/infrastructure/di"
	"depixsync/internal/infrastructure/observability"

	"go.uber.org/zap"
)

func main() {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "startup config error code=%s message=%s metadata=%v\n", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, "depixsync-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	container, err := di.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("dependency wiring: %w", err)
	}
	defer func() {
		if err := container.Database.Close(); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("persistence initialization starting", zap.String("database_target", cfg.DatabaseTarget))
	if appErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	}); appErr != nil {
		logger.Error("persistence initialization failed",
			zap.String("code", appErr.Code),
			zap.String("message", appErr.Message),
			zap.Any("details", appErr.Details),
		)
		return appErr
	}
	logger.Info("persistence initialization completed", zap.String("database_target", cfg.DatabaseTarget))

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		container.Scheduler.Start(ctx)
	}()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- container.Server.Start()
	}()

	select {
	case err := <-serverErrCh:
		stop()
		<-schedulerDone
		if err != nil {
			return fmt.Errorf("server startup: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-serverErrCh; err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("reconciliation tick still running at shutdown deadline")
	}

	logger.Info("server stopped")
	return nil
}
