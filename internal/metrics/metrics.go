package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal tracks outbound calls to the quoting backend.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warp_backend_requests_total",
			Help: "Total number of quoting backend requests (by operation and status).",
		},
		[]string{"op", "status"},
	)

	// BackendRequestDuration measures the duration of outbound backend calls.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warp_backend_request_duration_seconds",
			Help:    "Duration of quoting backend requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"op"},
	)

	// QuoteOutcomes counts interpreted quotes by outcome
	// (ok, degenerate, no_routes, failed, invalid).
	QuoteOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warp_quote_outcomes_total",
			Help: "Quotes served by outcome.",
		},
		[]string{"outcome"},
	)

	// QuoteCacheAccess counts quote cache lookups by result (hit, miss, error).
	QuoteCacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warp_quote_cache_access_total",
			Help: "Quote cache lookups by result.",
		},
		[]string{"result"},
	)

	// QuotesExpired counts quotes the in-memory cache swept after their TTL.
	QuotesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warp_quotes_expired_total",
			Help: "Quotes dropped from the in-memory cache after expiry.",
		},
	)

	// EventsPublished tracks NATS publish attempts by subject and result.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warp_events_published_total",
			Help: "Number of events published by subject and result.",
		},
		[]string{"subject", "result"},
	)
)

// IncBackendRequest increments the backend request counter.
func IncBackendRequest(op, status string) {
	BackendRequestsTotal.WithLabelValues(op, status).Inc()
}

// IncQuoteOutcome increments the quote outcome counter.
func IncQuoteOutcome(outcome string) {
	QuoteOutcomes.WithLabelValues(outcome).Inc()
}

// IncQuoteCache increments the quote cache counter.
func IncQuoteCache(result string) {
	QuoteCacheAccess.WithLabelValues(result).Inc()
}

// AddQuotesExpired records n swept quotes.
func AddQuotesExpired(n int) {
	if n > 0 {
		QuotesExpired.Add(float64(n))
	}
}

// IncEventPublished increments the publish counter.
func IncEventPublished(subject, result string) {
	EventsPublished.WithLabelValues(subject, result).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
