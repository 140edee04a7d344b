package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"

	"depixsync/internal/application/dto"
	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BurstWindow is the cool-down a class observes once its burst ceiling is hit.
const BurstWindow = 60 * time.Second

// Quota is the static budget of one endpoint class. A non-positive field
// disables that dimension.
type Quota struct {
	RateLimit  int
	BurstLimit int
	DailyLimit int
}

// Operation is the gated unit of work. It runs unchanged once admitted.
type Operation = func(ctx context.Context) *apperrors.AppError

// Observer receives admission events, for metrics.
type Observer interface {
	Admitted(class valueobjects.EndpointClass, delay time.Duration)
	Rejected(class valueobjects.EndpointClass)
	RolledBack(class valueobjects.EndpointClass)
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// WithLocation sets the zone whose midnight resets the daily quota.
func WithLocation(location *time.Location) Option {
	return func(l *Limiter) {
		if location != nil {
			l.location = location
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(l *Limiter) {
		l.observer = observer
	}
}

// Limiter gates calls per endpoint class under combined spacing, burst and
// daily quotas. State is process local.
type Limiter struct {
	windows  map[valueobjects.EndpointClass]*window
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	location *time.Location
	logger   *zap.Logger
	observer Observer
}

type window struct {
	mu      sync.Mutex
	class   valueobjects.EndpointClass
	quota   Quota
	spacing *rate.Limiter

	lastRequestAt    time.Time
	burstCount       int
	burstWindowStart time.Time
	dailyCount       int
	dailyResetAt     time.Time
}

// charge records what one admission added so it can be returned.
type charge struct {
	reservation      *rate.Reservation
	startAt          time.Time
	prevLastRequest  time.Time
	prevBurstStart   time.Time
	prevBurstCount   int
	burstWindowStart time.Time
	burstCount       int
	dailyResetAt     time.Time
}

func NewLimiter(quotas map[valueobjects.EndpointClass]Quota, opts ...Option) *Limiter {
	l := &Limiter{
		windows:  make(map[valueobjects.EndpointClass]*window, len(quotas)),
		now:      time.Now,
		sleep:    sleepContext,
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	now := l.now()
	for class, quota := range quotas {
		l.windows[class] = &window{
			class:        class,
			quota:        quota,
			spacing:      newSpacingLimiter(quota.RateLimit),
			dailyResetAt: nextMidnight(now, l.location),
		}
	}
	return l
}

func newSpacingLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Do runs op under the budget of class. Unregistered classes run ungated.
// The charge is taken before op starts and returned if the wait is cancelled
// or op fails with a transient error. Any other failure reached the provider
// and keeps its charge.
func (l *Limiter) Do(ctx context.Context, class valueobjects.EndpointClass, op Operation) *apperrors.AppError {
	w, exists := l.windows[class]
	if !exists {
		return op(ctx)
	}

	now := l.now()
	admitted, appErr := l.admit(w, now)
	if appErr != nil {
		if l.observer != nil {
			l.observer.Rejected(class)
		}
		l.logger.Warn("settlement call rejected by daily quota",
			zap.String("endpoint_class", class.String()),
			zap.Int("daily_limit", w.quota.DailyLimit),
		)
		return appErr
	}

	delay := admitted.startAt.Sub(now)
	if l.observer != nil {
		l.observer.Admitted(class, delay)
	}
	if delay > 0 {
		l.logger.Debug("settlement call throttled",
			zap.String("endpoint_class", class.String()),
			zap.Duration("delay", delay),
		)
		if err := l.sleep(ctx, delay); err != nil {
			l.rollback(w, admitted)
			return apperrors.NewTransient(
				"rate_limit_wait_cancelled",
				"rate limited call was cancelled while waiting",
				map[string]any{"endpoint_class": class.String(), "delay": delay.String()},
			)
		}
	}

	opErr := op(ctx)
	if opErr.IsType(apperrors.TypeTransient) {
		l.rollback(w, admitted)
		l.logger.Warn("settlement call charge rolled back",
			zap.String("endpoint_class", class.String()),
			zap.String("error_code", opErr.Code),
		)
	}
	return opErr
}

func (l *Limiter) admit(w *window, now time.Time) (charge, *apperrors.AppError) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !now.Before(w.dailyResetAt) {
		w.dailyCount = 0
		w.dailyResetAt = nextMidnight(now, l.location)
	}
	if w.quota.DailyLimit > 0 && w.dailyCount >= w.quota.DailyLimit {
		return charge{}, apperrors.NewQuotaExceeded(
			"rate_limit_daily_quota_exceeded",
			"daily quota exhausted for endpoint class",
			map[string]any{
				"endpoint_class": w.class.String(),
				"daily_limit":    w.quota.DailyLimit,
				"reset_at":       w.dailyResetAt.Format(time.RFC3339),
			},
		)
	}

	// Calls already queued behind a delay move the earliest start forward.
	base := now
	if w.lastRequestAt.After(base) {
		base = w.lastRequestAt
	}
	prevBurstStart, prevBurstCount := w.burstWindowStart, w.burstCount

	switch {
	case w.burstCount == 0 || !base.Before(w.burstWindowStart.Add(BurstWindow)):
		w.burstWindowStart = base
		w.burstCount = 0
	case w.quota.BurstLimit > 0 && w.burstCount >= w.quota.BurstLimit:
		base = w.burstWindowStart.Add(BurstWindow)
		w.burstWindowStart = base
		w.burstCount = 0
	}

	reservation := w.spacing.ReserveN(base, 1)
	startAt := base.Add(reservation.DelayFrom(base))

	admitted := charge{
		reservation:      reservation,
		startAt:          startAt,
		prevLastRequest:  w.lastRequestAt,
		prevBurstStart:   prevBurstStart,
		prevBurstCount:   prevBurstCount,
		burstWindowStart: w.burstWindowStart,
		burstCount:       w.burstCount + 1,
		dailyResetAt:     w.dailyResetAt,
	}
	w.lastRequestAt = startAt
	w.burstCount++
	w.dailyCount++
	return admitted, nil
}

func (l *Limiter) rollback(w *window, admitted charge) {
	w.mu.Lock()
	defer w.mu.Unlock()

	admitted.reservation.CancelAt(admitted.startAt)
	if w.lastRequestAt.Equal(admitted.startAt) {
		w.lastRequestAt = admitted.prevLastRequest
	}
	if w.burstWindowStart.Equal(admitted.burstWindowStart) {
		switch {
		case w.burstCount == admitted.burstCount:
			// Nothing was admitted after this charge.
			w.burstWindowStart = admitted.prevBurstStart
			w.burstCount = admitted.prevBurstCount
		case w.burstCount > 0:
			w.burstCount--
		}
	}
	if w.dailyResetAt.Equal(admitted.dailyResetAt) && w.dailyCount > 0 {
		w.dailyCount--
	}
	if l.observer != nil {
		l.observer.RolledBack(w.class)
	}
}

// Snapshot returns the current window of every registered class.
func (l *Limiter) Snapshot() []dto.RateWindowSnapshot {
	out := make([]dto.RateWindowSnapshot, 0, len(l.windows))
	for _, w := range l.windows {
		w.mu.Lock()
		out = append(out, dto.RateWindowSnapshot{
			EndpointClass:    w.class.String(),
			RateLimit:        w.quota.RateLimit,
			BurstLimit:       w.quota.BurstLimit,
			DailyLimit:       w.quota.DailyLimit,
			LastRequestAt:    w.lastRequestAt,
			BurstCount:       w.burstCount,
			BurstWindowStart: w.burstWindowStart,
			DailyCount:       w.dailyCount,
			DailyResetAt:     w.dailyResetAt,
		})
		w.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndpointClass < out[j].EndpointClass })
	return out
}

func nextMidnight(now time.Time, location *time.Location) time.Time {
	local := now.In(location)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, location)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
