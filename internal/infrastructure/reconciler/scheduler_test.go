//go:build !integration

package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"depixsync/internal/application/dto"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type slowReconcileUseCase struct {
	mu        sync.Mutex
	commands  []dto.ReconcileTransactionsCommand
	release   chan struct{}
	started   chan struct{}
	active    atomic.Int32
	maxActive atomic.Int32
	output    dto.ReconcileTransactionsOutput
	err       *apperrors.AppError
	panicWith any
}

func (f *slowReconcileUseCase) Execute(
	ctx context.Context,
	command dto.ReconcileTransactionsCommand,
) (dto.ReconcileTransactionsOutput, *apperrors.AppError) {
	current := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxActive.Load()
		if current <= seen || f.maxActive.CompareAndSwap(seen, current) {
			break
		}
	}

	f.mu.Lock()
	f.commands = append(f.commands, command)
	f.mu.Unlock()

	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
		}
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.output, f.err
}

func (f *slowReconcileUseCase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commands)
}

type countingRecorder struct {
	skipped   atomic.Int32
	aborted   atomic.Int32
	completed atomic.Int32
}

func (r *countingRecorder) TickSkipped() { r.skipped.Add(1) }

func (r *countingRecorder) TickAborted(time.Duration) { r.aborted.Add(1) }

func (r *countingRecorder) TickCompleted(dto.ReconcileTransactionsOutput, time.Duration, time.Time) {
	r.completed.Add(1)
}

func testSettings() Settings {
	return Settings{
		Enabled:        true,
		TickInterval:   5 * time.Millisecond,
		LookbackWindow: 2 * time.Hour,
		BatchSize:      50,
		InterItemDelay: 250 * time.Millisecond,
	}
}

func TestSchedulerDisabledDoesNotRun(t *testing.T) {
	useCase := &slowReconcileUseCase{}
	settings := testSettings()
	settings.Enabled = false
	scheduler := NewScheduler(settings, useCase, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	scheduler.Start(ctx)

	require.Zero(t, useCase.calls())
}

func TestSchedulerPassesSettingsToUseCase(t *testing.T) {
	useCase := &slowReconcileUseCase{}
	scheduler := NewScheduler(testSettings(), useCase, nil, nil)

	_, appErr := scheduler.RunOnce(context.Background())
	require.Nil(t, appErr)
	require.Equal(t, 1, useCase.calls())
	command := useCase.commands[0]
	require.Equal(t, 50, command.BatchSize)
	require.Equal(t, 2*time.Hour, command.LookbackWindow)
	require.Equal(t, 250*time.Millisecond, command.InterItemDelay)
	require.False(t, command.Now.IsZero())
	require.Equal(t, StateIdle, scheduler.State())
}

func TestSchedulerSecondTickIsSkippedWhileRunning(t *testing.T) {
	useCase := &slowReconcileUseCase{release: make(chan struct{}), started: make(chan struct{}, 1)}
	recorder := &countingRecorder{}
	scheduler := NewScheduler(testSettings(), useCase, nil, recorder)

	done := make(chan *apperrors.AppError, 1)
	go func() {
		_, appErr := scheduler.RunOnce(context.Background())
		done <- appErr
	}()
	<-useCase.started
	require.Equal(t, StateRunning, scheduler.State())

	_, appErr := scheduler.RunOnce(context.Background())
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.TypeConflict, appErr.Type)
	require.Equal(t, "reconciliation_already_running", appErr.Code)

	close(useCase.release)
	require.Nil(t, <-done)
	require.Equal(t, 1, useCase.calls())
	require.Equal(t, int32(1), recorder.skipped.Load())
	require.Equal(t, int32(1), recorder.completed.Load())
	require.Equal(t, StateIdle, scheduler.State())
}

func TestSchedulerTicksNeverOverlap(t *testing.T) {
	useCase := &slowReconcileUseCase{release: make(chan struct{})}
	recorder := &countingRecorder{}
	scheduler := NewScheduler(testSettings(), useCase, nil, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		scheduler.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return recorder.skipped.Load() >= 3 }, time.Second, time.Millisecond)
	close(useCase.release)
	cancel()
	<-stopped

	require.LessOrEqual(t, useCase.maxActive.Load(), int32(1))
	require.GreaterOrEqual(t, useCase.calls(), 1)
}

func TestSchedulerStoreFailureIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	useCase := &slowReconcileUseCase{err: apperrors.NewInternal("transaction_query_failed", "query failed", nil)}
	recorder := &countingRecorder{}
	scheduler := NewScheduler(testSettings(), useCase, zap.New(core), recorder)

	_, appErr := scheduler.RunOnce(context.Background())
	require.NotNil(t, appErr)
	require.Equal(t, int32(1), recorder.aborted.Load())
	require.Equal(t, 1, logs.FilterMessage("reconciliation tick aborted").Len())

	// The guard is released for the next tick.
	useCase.err = nil
	_, appErr = scheduler.RunOnce(context.Background())
	require.Nil(t, appErr)
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	useCase := &slowReconcileUseCase{panicWith: "boom"}
	scheduler := NewScheduler(testSettings(), useCase, nil, nil)

	_, appErr := scheduler.RunOnce(context.Background())
	require.NotNil(t, appErr)
	require.Equal(t, "reconciliation_tick_panicked", appErr.Code)
	require.Equal(t, StateIdle, scheduler.State())
}

func TestSchedulerLogsUnmappedAndFailedItems(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	useCase := &slowReconcileUseCase{output: dto.SummarizeReconcileResults([]dto.ReconcileItemResult{
		{TransactionID: "tx_1", Outcome: dto.ReconcileItemUnmapped, RawStatus: "foo"},
		{TransactionID: "tx_2", Outcome: dto.ReconcileItemFailed, ErrorCode: "settlement_timeout", Retryable: true},
	})}
	scheduler := NewScheduler(testSettings(), useCase, zap.New(core), nil)

	output, appErr := scheduler.RunOnce(context.Background())
	require.Nil(t, appErr)
	require.Equal(t, 1, output.Unmapped)
	require.Equal(t, 1, logs.FilterMessage("provider status not mapped").Len())
	failed := logs.FilterMessage("transaction reconcile failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, true, failed[0].ContextMap()["retryable"])
	summary := logs.FilterMessage("reconciliation tick completed").All()
	require.Len(t, summary, 1)
	require.Equal(t, int64(1), summary[0].ContextMap()["errors"])
}
