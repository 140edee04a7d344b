package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"depixsync/internal/application/dto"
	portsin "depixsync/internal/application/ports/in"
	apperrors "depixsync/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

type Settings struct {
	Enabled        bool
	TickInterval   time.Duration
	LookbackWindow time.Duration
	BatchSize      int
	InterItemDelay time.Duration
}

// Recorder receives tick outcomes, for metrics.
type Recorder interface {
	TickSkipped()
	TickAborted(duration time.Duration)
	TickCompleted(output dto.ReconcileTransactionsOutput, duration time.Duration, finishedAt time.Time)
}

// Scheduler runs reconciliation ticks on a timer. At most one tick runs at a
// time; a tick that fires while another is running is skipped, not queued.
type Scheduler struct {
	settings Settings
	useCase  portsin.ReconcileTransactionsUseCase
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time

	state atomic.Int32
	ticks sync.WaitGroup
}

func NewScheduler(
	settings Settings,
	useCase portsin.ReconcileTransactionsUseCase,
	logger *zap.Logger,
	recorder Recorder,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		settings: settings,
		useCase:  useCase,
		logger:   logger,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Enabled() bool {
	return s != nil && s.settings.Enabled
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start blocks until ctx is done, then waits for an in-flight tick.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Enabled() || s.useCase == nil {
		return
	}

	s.logger.Info("reconciliation scheduler started",
		zap.Duration("tick_interval", s.settings.TickInterval),
		zap.Duration("lookback_window", s.settings.LookbackWindow),
		zap.Int("batch_size", s.settings.BatchSize),
		zap.Duration("inter_item_delay", s.settings.InterItemDelay),
	)

	s.dispatch(ctx)
	ticker := time.NewTicker(s.settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.ticks.Wait()
			s.logger.Info("reconciliation scheduler stopped")
			return
		case <-ticker.C:
			s.dispatch(ctx)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	s.ticks.Add(1)
	go func() {
		defer s.ticks.Done()
		// Store failures are already logged; the next tick retries.
		_, _ = s.RunOnce(ctx)
	}()
}

// RunOnce runs a single tick under the single-flight guard. It is shared by
// the timer and the manual trigger.
func (s *Scheduler) RunOnce(ctx context.Context) (output dto.ReconcileTransactionsOutput, appErr *apperrors.AppError) {
	if s.useCase == nil {
		return dto.ReconcileTransactionsOutput{}, apperrors.NewInternal(
			"reconcile_use_case_missing",
			"reconcile use case is required",
			nil,
		)
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		s.logger.Debug("reconciliation tick skipped while another tick is running")
		if s.recorder != nil {
			s.recorder.TickSkipped()
		}
		return dto.ReconcileTransactionsOutput{}, apperrors.NewConflict(
			"reconciliation_already_running",
			"a reconciliation tick is already running",
			nil,
		)
	}
	defer s.state.Store(int32(StateIdle))

	startedAt := s.now()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("reconciliation tick panicked", zap.Any("panic", recovered))
			output = dto.ReconcileTransactionsOutput{}
			appErr = apperrors.NewInternal(
				"reconciliation_tick_panicked",
				"reconciliation tick panicked",
				nil,
			)
			if s.recorder != nil {
				s.recorder.TickAborted(s.now().Sub(startedAt))
			}
		}
	}()

	output, appErr = s.useCase.Execute(ctx, dto.ReconcileTransactionsCommand{
		Now:            startedAt,
		LookbackWindow: s.settings.LookbackWindow,
		BatchSize:      s.settings.BatchSize,
		InterItemDelay: s.settings.InterItemDelay,
	})
	finishedAt := s.now()
	if appErr != nil {
		s.logger.Error("reconciliation tick aborted",
			zap.String("code", appErr.Code),
			zap.String("message", appErr.Message),
			zap.Any("details", appErr.Details),
		)
		if s.recorder != nil {
			s.recorder.TickAborted(finishedAt.Sub(startedAt))
		}
		return output, appErr
	}

	s.logItems(output.Results)
	s.logger.Info("reconciliation tick completed",
		zap.Int("checked", output.Checked),
		zap.Int("updated", output.Updated),
		zap.Int("skipped", output.Skipped),
		zap.Int("unmapped", output.Unmapped),
		zap.Int("errors", output.Errors),
		zap.Int64("latency_ms", finishedAt.Sub(startedAt).Milliseconds()),
	)
	if s.recorder != nil {
		s.recorder.TickCompleted(output, finishedAt.Sub(startedAt), finishedAt)
	}
	return output, nil
}

func (s *Scheduler) logItems(results []dto.ReconcileItemResult) {
	for _, result := range results {
		switch result.Outcome {
		case dto.ReconcileItemUnmapped:
			s.logger.Warn("provider status not mapped",
				zap.String("transaction_id", result.TransactionID),
				zap.String("external_id", result.ExternalID),
				zap.String("raw_status", result.RawStatus),
			)
		case dto.ReconcileItemFailed:
			s.logger.Warn("transaction reconcile failed",
				zap.String("transaction_id", result.TransactionID),
				zap.String("external_id", result.ExternalID),
				zap.String("error_type", result.ErrorType),
				zap.String("error_code", result.ErrorCode),
				zap.Bool("retryable", result.Retryable),
			)
		case dto.ReconcileItemUpdated:
			s.logger.Info("transaction status reconciled",
				zap.String("transaction_id", result.TransactionID),
				zap.String("from", result.PreviousStatus.String()),
				zap.String("to", result.NextStatus.String()),
			)
		}
	}
}
