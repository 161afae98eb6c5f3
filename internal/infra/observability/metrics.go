package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	fetchDuration  *prometheus.HistogramVec
	staleFetches   prometheus.Counter
	externalErrors *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	editOutcomes   *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spendlens_fetch_duration_seconds",
				Help:    "Duration of ledger fetches by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		staleFetches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendlens_stale_fetches_dropped_total",
				Help: "Total superseded fetch responses discarded by the sequence guard.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendlens_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendlens_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendlens_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		editOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendlens_edit_outcomes_total",
				Help: "Total edit session outcomes.",
			},
			[]string{"outcome"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendlens_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordFetchDuration records the duration of a ledger operation.
func (m *Metrics) RecordFetchDuration(operation string, d time.Duration) {
	m.fetchDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStaleFetch counts a superseded response dropped on arrival.
func (m *Metrics) IncrStaleFetch() {
	m.staleFetches.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrEditOutcome counts one edit session outcome
// (saved, save_failed, cancelled, deleted, delete_failed).
func (m *Metrics) IncrEditOutcome(outcome string) {
	m.editOutcomes.WithLabelValues(outcome).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// Snapshot returns current counter values for the GET /v1/metrics/snapshot
// endpoint.
func (m *Metrics) Snapshot() *domain.MetricsSnapshot {
	// Prometheus counters expose cumulative values.
	success := vecValue(m.requestsTotal, "success")
	errs := vecValue(m.requestsTotal, "error")
	total := success + errs

	hits := vecValue(m.cacheHits, "dashboard")
	misses := vecValue(m.cacheMisses, "dashboard")

	errorRate := float64(0)
	if total > 0 {
		errorRate = errs / total
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	externalErrors := vecValue(m.externalErrors, "ledger") +
		vecValue(m.externalErrors, "supabase")

	return &domain.MetricsSnapshot{
		TotalRequests:   int64(total),
		ErrorRate:       errorRate,
		CacheHitRate:    hitRate,
		StaleFetchDrops: int64(counterValue(m.staleFetches)),
		ExternalErrors:  int64(externalErrors),
		EditsSaved:      int64(vecValue(m.editOutcomes, "saved")),
		Deletes:         int64(vecValue(m.editOutcomes, "deleted")),
		Period:          "all_time",
	}
}

// vecValue extracts the current float64 value from a CounterVec for a given label.
func vecValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
