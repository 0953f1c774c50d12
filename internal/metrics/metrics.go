// Package metrics provides Prometheus instrumentation for the hedge book.
package metrics

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
	// BookRows tracks the number of joined rows currently held by the book.
	BookRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hedgebook_rows",
		Help: "Number of joined position rows in the book",
	})

	// BookReloads counts book reloads, partitioned by outcome.
	BookReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedgebook_reloads_total",
		Help: "Total book reloads",
	}, []string{"outcome"})

	// RollupBuildDuration tracks how long a rollup takes to build.
	RollupBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hedgebook_rollup_build_seconds",
		Help:    "Rollup build duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// ManualTradesSaved counts manual trade writes by operation.
	ManualTradesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedgebook_manual_trades_saved_total",
		Help: "Manual trades created, updated or deleted",
	}, []string{"op"})

	// RollupMismatches counts fields that differed during rollup verification.
	RollupMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hedgebook_rollup_mismatches_total",
		Help: "Rollup fields that disagreed with the upstream rollup",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hedgebook_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hedgebook_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(duration)
	})
}

// unmatchedPath labels requests that matched no route.
const unmatchedPath = "unmatched"

// routePattern keeps the path label low-cardinality: trade ids are
// collapsed into the chi route pattern once routing has happened.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedPath
}

// ObserveSince records the elapsed time since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
