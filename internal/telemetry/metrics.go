// Package telemetry wires the process's ambient HTTP/process metrics
// through prometheus/client_golang and exposes the engine's caller-defined
// impact metrics as a separate JSON endpoint, since their collect/reset
// semantics don't map onto client_golang's monotonic counter/gauge model.
package telemetry

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ygg-project/yggcore/internal/impactmetrics"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients",
		Help: "Number of currently connected SSE clients",
	})
	SnapshotToggles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_toggles",
		Help: "Number of toggles currently in the applied engine snapshot",
	})
)

// Init registers the process-wide prometheus collectors. Call once at
// startup.
func Init() {
	prometheus.MustRegister(httpReqs, httpDur, SSEClients, SnapshotToggles)
}

// Middleware records request count and latency for every handled route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ImpactMetricsHandler serves the current harvest of a registry's
// caller-defined counters/gauges/histograms as JSON. Unlike GET /metrics
// (prometheus exposition, cumulative), this endpoint resets every metric it
// reports, matching the registry's collect-and-reset contract.
func ImpactMetricsHandler(registry *impactmetrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(registry.Collect())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
