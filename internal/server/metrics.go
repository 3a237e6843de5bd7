package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/tasks"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	RunErrors          prometheus.Counter
	RunDuration        prometheus.Histogram
	LastRunTimestamp   prometheus.Gauge
	Records            *prometheus.GaugeVec
	DiagnosticsTotal   *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "m3ux_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		RunErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "m3ux_run_errors_total",
				Help: "Total number of pipeline runs that failed to fetch or write",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "m3ux_run_duration_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "m3ux_last_run_timestamp_seconds",
				Help: "Unix time of the last finished pipeline run",
			},
		),
		Records: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "m3ux_records",
				Help: "Records in the last processed playlist",
			},
			[]string{"stage"}, // "parsed", "emitted"
		),
		DiagnosticsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "m3ux_diagnostics_total",
				Help: "Total number of parser and rule diagnostics by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "m3ux_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "m3ux_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one pipeline run. It has the shape of [tasks.RunHook].
func (m *Metrics) ObserveRun(result *tasks.Result, err error, elapsed time.Duration) {
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()

	if err != nil {
		m.RunErrors.Inc()
		return
	}

	outcome := models.RunProcessed
	if result.Skipped {
		outcome = models.RunSkipped
	}
	m.RunsTotal.WithLabelValues(string(outcome)).Inc()

	if result.Skipped {
		return
	}
	m.Records.WithLabelValues("parsed").Set(float64(result.Parsed))
	m.Records.WithLabelValues("emitted").Set(float64(result.Emitted))
	for _, d := range result.Diagnostics {
		m.DiagnosticsTotal.WithLabelValues(string(d.Outcome)).Inc()
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Instrument returns middleware that counts and times requests. Requests for the skip paths pass through uncounted.
func (m *Metrics) Instrument(skip ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range skip {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			path := routePath(r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestSeconds.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// routePath labels a request by its matched route template to keep label cardinality bounded.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
