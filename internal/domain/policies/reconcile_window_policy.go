package policies

import "time"

const (
	reconcileLookbackDefault = 2 * time.Hour
	reconcileLookbackMinimum = time.Minute
)

// ResolveReconcileCutoff returns the oldest creation time still worth polling.
// Older transactions are presumed abandoned by the provider.
func ResolveReconcileCutoff(now time.Time, lookback time.Duration) time.Time {
	if lookback <= 0 {
		lookback = reconcileLookbackDefault
	}
	if lookback < reconcileLookbackMinimum {
		lookback = reconcileLookbackMinimum
	}

	return now.UTC().Add(-lookback)
}
