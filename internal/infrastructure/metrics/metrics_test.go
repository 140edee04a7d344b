//go:build !integration

package metrics

import (
	"testing"
	"time"

	"depixsync/internal/application/dto"
	valueobjects "depixsync/internal/domain/value_objects"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLimiterEventsAreCountedPerClass(t *testing.T) {
	m := NewMetrics("depixsync", prometheus.NewRegistry())

	m.Admitted(valueobjects.EndpointClassLivenessCheck, 59*time.Second)
	m.Admitted(valueobjects.EndpointClassLivenessCheck, 0)
	m.Rejected(valueobjects.EndpointClassDepositCreation)
	m.RolledBack(valueobjects.EndpointClassDepositStatusQuery)

	require.Equal(t, 2.0, testutil.ToFloat64(m.admittedCalls.WithLabelValues("liveness_check")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejectedCalls.WithLabelValues("deposit_creation")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rolledBackCalls.WithLabelValues("deposit_status_query")))
}

func TestTickCompletedRecordsOutcomes(t *testing.T) {
	m := NewMetrics("depixsync", prometheus.NewRegistry())
	finishedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m.TickCompleted(dto.ReconcileTransactionsOutput{Checked: 4, Updated: 2, Skipped: 1, Errors: 1}, time.Second, finishedAt)
	m.TickSkipped()

	require.Equal(t, 1.0, testutil.ToFloat64(m.reconcileTicks.WithLabelValues("completed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reconcileTicks.WithLabelValues("skipped")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.reconcileItems.WithLabelValues("updated")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reconcileItems.WithLabelValues("failed")))
	require.Equal(t, float64(finishedAt.Unix()), testutil.ToFloat64(m.reconcileLastRun))
}
