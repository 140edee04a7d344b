package metrics

import (
	"fmt"
	"time"

	"depixsync/internal/application/dto"
	valueobjects "depixsync/internal/domain/value_objects"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	admittedCalls     *prometheus.CounterVec
	rejectedCalls     *prometheus.CounterVec
	rolledBackCalls   *prometheus.CounterVec
	throttleDelay     *prometheus.HistogramVec
	reconcileTicks    *prometheus.CounterVec
	reconcileItems    *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	reconcileLastRun  prometheus.Gauge
}

// NewMetrics registers the collectors on registerer. A nil registerer
// uses the default prometheus registry.
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		admittedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_settlement_calls_admitted_total", namespace),
			Help: "Settlement calls admitted by the rate limiter",
		}, []string{"endpoint_class"}),
		rejectedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_settlement_calls_rejected_total", namespace),
			Help: "Settlement calls rejected by the daily quota",
		}, []string{"endpoint_class"}),
		rolledBackCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_settlement_calls_rolled_back_total", namespace),
			Help: "Admitted settlement calls whose charge was returned after a failure",
		}, []string{"endpoint_class"}),
		throttleDelay: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_settlement_throttle_delay_seconds", namespace),
			Help:    "Delay imposed by the rate limiter before an admitted call",
			Buckets: []float64{0, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"endpoint_class"}),
		reconcileTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_reconcile_ticks_total", namespace),
			Help: "Reconciliation ticks by result",
		}, []string{"result"}),
		reconcileItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_reconcile_items_total", namespace),
			Help: "Reconciled transactions by outcome",
		}, []string{"outcome"}),
		reconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_reconcile_tick_duration_seconds", namespace),
			Help:    "Wall time of a reconciliation tick",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		reconcileLastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_reconcile_last_completed_timestamp_seconds", namespace),
			Help: "Unix time of the last completed reconciliation tick",
		}),
	}
}

func (m *Metrics) Admitted(class valueobjects.EndpointClass, delay time.Duration) {
	m.admittedCalls.WithLabelValues(class.String()).Inc()
	m.throttleDelay.WithLabelValues(class.String()).Observe(delay.Seconds())
}

func (m *Metrics) Rejected(class valueobjects.EndpointClass) {
	m.rejectedCalls.WithLabelValues(class.String()).Inc()
}

func (m *Metrics) RolledBack(class valueobjects.EndpointClass) {
	m.rolledBackCalls.WithLabelValues(class.String()).Inc()
}

func (m *Metrics) TickSkipped() {
	m.reconcileTicks.WithLabelValues("skipped").Inc()
}

func (m *Metrics) TickAborted(duration time.Duration) {
	m.reconcileTicks.WithLabelValues("aborted").Inc()
	m.reconcileDuration.Observe(duration.Seconds())
}

func (m *Metrics) TickCompleted(output dto.ReconcileTransactionsOutput, duration time.Duration, finishedAt time.Time) {
	m.reconcileTicks.WithLabelValues("completed").Inc()
	m.reconcileDuration.Observe(duration.Seconds())
	m.reconcileLastRun.Set(float64(finishedAt.Unix()))
	m.reconcileItems.WithLabelValues(string(dto.ReconcileItemUpdated)).Add(float64(output.Updated))
	m.reconcileItems.WithLabelValues(string(dto.ReconcileItemSkipped)).Add(float64(output.Skipped))
	m.reconcileItems.WithLabelValues(string(dto.ReconcileItemUnmapped)).Add(float64(output.Unmapped))
	m.reconcileItems.WithLabelValues(string(dto.ReconcileItemFailed)).Add(float64(output.Errors))
}
