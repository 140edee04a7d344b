package use_cases

import (
	"context"
	"time"
)

type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

// Sleeper suspends the caller and returns early with the context error.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type contextSleeper struct{}

func NewContextSleeper() Sleeper {
	return contextSleeper{}
}

func (contextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
