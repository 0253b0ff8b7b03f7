package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SyncTriggerInterval  = "interval"
	SyncTriggerImmediate = "immediate"
	SyncTriggerManual    = "manual"

	SyncPushOutcomeSynced = "synced"
	SyncPushOutcomeError  = "error"
	SyncPushOutcomePurged = "purged"
)

// SyncMetrics captures reconciliation health signals: cycle cadence, push
// outcomes and pull volume.
type SyncMetrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	cycleErrors   *prometheus.CounterVec
	pushOutcomes  *prometheus.CounterVec
	pullDocuments prometheus.Counter
	pullFailures  prometheus.Counter
	pendingGauge  prometheus.Gauge
}

var (
	syncMetricsOnce sync.Once
	syncMetrics     *SyncMetrics
)

// Sync returns the singleton sync metrics registry.
func Sync() *SyncMetrics {
	syncMetricsOnce.Do(func() {
		syncMetrics = newSyncMetrics(prometheus.DefaultRegisterer)
	})
	return syncMetrics
}

// ResetSyncMetricsForTest resets the sync metrics singleton for tests.
func ResetSyncMetricsForTest() {
	if syncMetrics != nil {
		prometheus.Unregister(syncMetrics.cycles)
		prometheus.Unregister(syncMetrics.cycleDuration)
		prometheus.Unregister(syncMetrics.cycleErrors)
		prometheus.Unregister(syncMetrics.pushOutcomes)
		prometheus.Unregister(syncMetrics.pullDocuments)
		prometheus.Unregister(syncMetrics.pullFailures)
		prometheus.Unregister(syncMetrics.pendingGauge)
	}
	syncMetricsOnce = sync.Once{}
	syncMetrics = nil
}

func newSyncMetrics(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_sync_cycles_total",
		Help: "Reconciliation cycles by trigger source.",
	}, []string{"trigger"})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stocksync_sync_cycle_duration_seconds",
		Help:    "Reconciliation cycle latency.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	cycleErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_sync_cycle_errors_total",
		Help: "Reconciliation cycle errors by phase.",
	}, []string{"phase"})
	pushOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocksync_sync_push_total",
		Help: "Push attempts by outcome.",
	}, []string{"outcome"})
	pullDocuments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stocksync_sync_pull_documents_total",
		Help: "Remote documents applied to the local store.",
	})
	pullFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stocksync_sync_pull_failures_total",
		Help: "Remote fetches that failed and were skipped.",
	})
	pendingGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stocksync_sync_pending_records",
		Help: "Records awaiting push at the start of the last cycle.",
	})

	registerer.MustRegister(
		cycles,
		cycleDuration,
		cycleErrors,
		pushOutcomes,
		pullDocuments,
		pullFailures,
		pendingGauge,
	)

	return &SyncMetrics{
		cycles:        cycles,
		cycleDuration: cycleDuration,
		cycleErrors:   cycleErrors,
		pushOutcomes:  pushOutcomes,
		pullDocuments: pullDocuments,
		pullFailures:  pullFailures,
		pendingGauge:  pendingGauge,
	}
}

func (m *SyncMetrics) IncCycle(trigger string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(trigger).Inc()
}

func (m *SyncMetrics) ObserveCycleDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

func (m *SyncMetrics) IncCycleError(phase string) {
	if m == nil {
		return
	}
	m.cycleErrors.WithLabelValues(phase).Inc()
}

func (m *SyncMetrics) IncPushOutcome(outcome string) {
	if m == nil {
		return
	}
	m.pushOutcomes.WithLabelValues(outcome).Inc()
}

func (m *SyncMetrics) AddPullDocuments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pullDocuments.Add(float64(n))
}

func (m *SyncMetrics) IncPullFailure() {
	if m == nil {
		return
	}
	m.pullFailures.Inc()
}

func (m *SyncMetrics) SetPendingRecords(n int) {
	if m == nil {
		return
	}
	m.pendingGauge.Set(float64(n))
}
