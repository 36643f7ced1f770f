// Package metrics exposes Prometheus collectors for the scoreshot service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared by captures and probe checks.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	updatesTotal               *prometheus.CounterVec
	platesTotal                *prometheus.CounterVec
	capturesTotal              *prometheus.CounterVec
	captureDurationSeconds     prometheus.Histogram
	activeCaptures             prometheus.Gauge
	probeChecksTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		updatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreshot_updates_total",
				Help: "Total Telegram updates consumed, labeled by kind.",
			},
			[]string{"kind"},
		)

		platesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreshot_plates_total",
				Help: "Total registration marks received, labeled by validation result.",
			},
			[]string{"result"},
		)

		capturesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreshot_captures_total",
				Help: "Total screenshot jobs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		captureDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scoreshot_capture_duration_seconds",
				Help:    "Histogram of end-to-end screenshot job durations.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
		)

		activeCaptures = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scoreshot_active_captures",
				Help: "Number of screenshot jobs currently driving a browser.",
			},
		)

		probeChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreshot_probe_checks_total",
				Help: "Total target reachability checks, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpdate counts one consumed Telegram update of the given kind
// (message, command, callback, ignored).
func ObserveUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

// ObservePlate counts one received mark by validation result
// (accepted, rejected).
func ObservePlate(result string) {
	platesTotal.WithLabelValues(result).Inc()
}

// ObserveCapture records one finished screenshot job.
func ObserveCapture(outcome string, duration time.Duration) {
	capturesTotal.WithLabelValues(outcome).Inc()
	captureDurationSeconds.Observe(duration.Seconds())
}

// IncActiveCaptures increments the running-jobs gauge.
func IncActiveCaptures() {
	activeCaptures.Inc()
}

// DecActiveCaptures decrements the running-jobs gauge.
func DecActiveCaptures() {
	activeCaptures.Dec()
}

// ObserveProbeCheck counts one reachability check by outcome (ok, error).
func ObserveProbeCheck(outcome string) {
	probeChecksTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest increments the ops-server request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
