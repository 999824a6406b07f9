package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpass",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletpass",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "path"},
	)

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpass",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Calls made to Google OAuth and Wallet endpoints by operation and status.",
		},
		[]string{"op", "status"},
	)

	passesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpass",
			Subsystem: "passes",
			Name:      "issued_total",
			Help:      "Add-pass workflow outcomes.",
		},
		[]string{"outcome"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpass",
			Subsystem: "token",
			Name:      "refreshes_total",
			Help:      "Access token cache refreshes by source.",
		},
		[]string{"source"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, upstreamRequests, passesIssued, tokenRefreshes)
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpstream counts a provider call. status 0 means the call never got a response.
func RecordUpstream(op string, status int) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	upstreamRequests.WithLabelValues(op, label).Inc()
}

// RecordIssue counts a finished add-pass workflow.
func RecordIssue(outcome string) {
	passesIssued.WithLabelValues(outcome).Inc()
}

// RecordTokenRefresh counts where a refreshed access token came from.
func RecordTokenRefresh(source string) {
	tokenRefreshes.WithLabelValues(source).Inc()
}

// Handler exposes the registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
