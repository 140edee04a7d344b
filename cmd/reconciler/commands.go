package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"depixsync/internal/application/dto"
	"depixsync/internal/infrastructure/config"
	"depixsync/internal/infrastructure/di"
	"depixsync/internal/infrastructure/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errReconcilerDisabled = errors.New("RECONCILER_ENABLED must be true for the reconciler runtime")

// runtime is the wired process shared by every subcommand.
type runtime struct {
	cfg       config.Config
	logger    *zap.Logger
	container di.Container
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "reconciler",
		Short:         "Reconcile open DePix deposits against the settlement provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newOnceCommand(), newLimitsCommand())
	return root
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run reconciliation ticks until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			if !rt.container.Scheduler.Enabled() {
				return errReconcilerDisabled
			}
			rt.container.Scheduler.Start(ctx)
			rt.logger.Info("reconciler stopped")
			return nil
		},
	}
}

func newOnceCommand() *cobra.Command {
	var showResults bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single reconciliation tick and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			output, appErr := rt.container.Scheduler.RunOnce(ctx)
			if appErr != nil {
				return appErr
			}
			if !showResults {
				output.Results = nil
			}
			return writeJSON(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().BoolVar(&showResults, "results", false, "include per-transaction results")
	return cmd
}

func newLimitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Print the configured rate windows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cfgErr := config.LoadConfig()
			if cfgErr != nil {
				return cfgErr
			}
			container, err := di.Build(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer container.Database.Close()

			windows, appErr := container.GetRateLimitsUseCase.Execute(cmd.Context())
			if appErr != nil {
				return appErr
			}
			return writeJSON(cmd.OutOrStdout(), map[string][]dto.RateWindowSnapshot{"windows": windows})
		},
	}
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		return nil, cfgErr
	}

	logger, err := observability.NewLogger(cfg.LogLevel, "depixsync-reconciler")
	if err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}

	container, err := di.Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("dependency wiring: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger, container: container}

	logger.Info("reconciler persistence initialization starting", zap.String("database_target", cfg.DatabaseTarget))
	if appErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	}); appErr != nil {
		rt.close()
		return nil, appErr
	}
	logger.Info("reconciler persistence initialization completed", zap.String("database_target", cfg.DatabaseTarget))

	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.container.Database.Close(); err != nil {
		rt.logger.Warn("database close failed", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

func writeJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
