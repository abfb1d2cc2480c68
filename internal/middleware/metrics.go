package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assurance_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	requestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assurance_http_requests_in_progress",
		Help: "HTTP requests currently being served.",
	})

	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assurance_analyses_total",
		Help: "Assessment runs by provider and outcome.",
	}, []string{"provider", "outcome"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assurance_provider_duration_seconds",
		Help:    "Time spent waiting on the assessment provider.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"provider"})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assurance_exports_total",
		Help: "Report exports by format.",
	}, []string{"format"})
)

// ObserveAnalysis counts one assessment run and its provider latency.
func ObserveAnalysis(provider, outcome string, took time.Duration) {
	analysesTotal.WithLabelValues(provider, outcome).Inc()
	providerLatency.WithLabelValues(provider).Observe(took.Seconds())
}

// IncrementExports counts one export (xlsx, pdf).
func IncrementExports(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}

// MetricsMiddleware tracks request metrics. The route label is the chi pattern,
// so ids do not blow up cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsInProgress.Inc()
		defer requestsInProgress.Dec()

		// Wrap response writer to capture status
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
	})
}

// MetricsHandler exposes the default registry in Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
