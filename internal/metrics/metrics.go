// Package metrics exposes the server's Prometheus collectors. A nil
// *Metrics is valid and every method on it is a no-op, so wiring metrics
// in is strictly optional: server code calls through the pointer
// unconditionally and simply gets cheap no-ops when metrics were not
// requested.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors the server updates while handling
// requests and running compactions.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	compactionsTotal prometheus.Counter
	compactionSecs   prometheus.Histogram
	obsoleteRecords  prometheus.Gauge
	activeWorkers    prometheus.Gauge
}

// New constructs and registers every collector against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvs_requests_total",
			Help: "Requests handled, by kind.",
		}, []string{"kind"}),
		compactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvs_compactions_total",
			Help: "Compactions run.",
		}),
		compactionSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kvs_compaction_seconds",
			Help:    "Compaction duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		obsoleteRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kvs_obsolete_records",
			Help: "Current obsolete-record counter value.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kvs_active_workers",
			Help: "Worker-pool goroutines currently handling a connection.",
		}),
	}

	reg.MustRegister(m.requestsTotal, m.compactionsTotal, m.compactionSecs, m.obsoleteRecords, m.activeWorkers)
	return m
}

// ObserveRequest records one handled request of the given kind.
func (m *Metrics) ObserveRequest(kind string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(kind).Inc()
}

// ObserveCompaction records one completed compaction and its duration.
func (m *Metrics) ObserveCompaction(seconds float64) {
	if m == nil {
		return
	}
	m.compactionsTotal.Inc()
	m.compactionSecs.Observe(seconds)
}

// SetObsoleteRecords publishes the current obsolete-record counter value.
func (m *Metrics) SetObsoleteRecords(n int) {
	if m == nil {
		return
	}
	m.obsoleteRecords.Set(float64(n))
}

// WorkerStarted/WorkerFinished track the in-flight worker count.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.activeWorkers.Inc()
}

func (m *Metrics) WorkerFinished() {
	if m == nil {
		return
	}
	m.activeWorkers.Dec()
}
