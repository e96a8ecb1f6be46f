package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	submissionsTotal      *prometheus.CounterVec
	scoringLatencySeconds prometheus.Histogram
	vaultFailuresTotal    prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the scoring engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flag_submissions_total",
			Help: "Total flag submission attempts by outcome.",
		}, []string{"outcome"})

		scoringLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_latency_seconds",
			Help:    "Latency distribution of the scoring coordinator.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		vaultFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flag_vault_failures_total",
			Help: "Total flag decryption failures observed during scoring.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution of HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(submissionsTotal, scoringLatencySeconds, vaultFailuresTotal, httpRequestsTotal, httpLatencySeconds)
	})
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ScoringLatency exposes the scoring latency histogram.
func ScoringLatency() prometheus.Histogram {
	RegisterMetrics()
	return scoringLatencySeconds
}

// VaultFailures exposes the decryption failure counter.
func VaultFailures() prometheus.Counter {
	RegisterMetrics()
	return vaultFailuresTotal
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
