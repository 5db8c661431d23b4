// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pubdash"

// Metrics holds the Prometheus collectors for the fetch, cache, normalize
// and dashboard stages. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// UpstreamRequests counts OpenAlex page requests, labeled by HTTP status
	// ("error" for transport failures).
	UpstreamRequests *prometheus.CounterVec

	// FetchFailures counts fetches that stopped before the last page.
	FetchFailures prometheus.Counter

	// FetchDuration observes whole-fetch duration in seconds.
	FetchDuration prometheus.Histogram

	// CacheLookups counts cache lookups labeled by result (hit, miss, expired).
	CacheLookups *prometheus.CounterVec

	// RecordsSkipped counts records dropped by the normalizer, by reason.
	RecordsSkipped *prometheus.CounterVec

	// Renders counts dashboard render passes labeled by route.
	Renders *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Passing
// nil skips registration, which tests use to avoid global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "upstream_requests_total",
			Help:      "OpenAlex page requests by HTTP status.",
		}, []string{"status"}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Fetches aborted before the last page.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Duration of a complete fetch.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Fetch cache lookups by result.",
		}, []string{"result"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "records_skipped_total",
			Help:      "Records dropped during normalization by reason.",
		}, []string{"reason"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "renders_total",
			Help:      "Dashboard render passes by route.",
		}, []string{"route"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.UpstreamRequests,
			m.FetchFailures,
			m.FetchDuration,
			m.CacheLookups,
			m.RecordsSkipped,
			m.Renders,
		)
	}
	return m
}

// ObserveRequest records one upstream request. status is 0 for transport errors.
func (m *Metrics) ObserveRequest(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(label).Inc()
}

// ObserveFetch records a completed fetch.
func (m *Metrics) ObserveFetch(seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
	if failed {
		m.FetchFailures.Inc()
	}
}

// ObserveCache records a cache lookup result.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveSkip records one skipped record.
func (m *Metrics) ObserveSkip(reason string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(reason).Inc()
}

// ObserveRender records one dashboard render pass.
func (m *Metrics) ObserveRender(route string) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(route).Inc()
}
