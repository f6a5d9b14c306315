// Package metrics provides Prometheus metrics for the LFS server.
//
// Metrics are optional. A nil *Metrics is valid and records nothing, so
// components take one without checking whether collection is enabled.
//
// Usage:
//
//	m := metrics.New()
//	router.Use(m.Middleware)
//	router.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytesTotal      *prometheus.CounterVec
	batchObjects    *prometheus.CounterVec
	lockOps         *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: reg,
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lfsgate_http_requests_total",
				Help: "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lfsgate_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.05, 0.5, 5, 60},
			},
			[]string{"route", "method"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lfsgate_object_bytes_total",
				Help: "Total object bytes transferred",
			},
			[]string{"direction"},
		),
		batchObjects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lfsgate_batch_objects_total",
				Help: "Objects answered by the batch endpoint by operation and result",
			},
			[]string{"operation", "result"},
		),
		lockOps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lfsgate_lock_operations_total",
				Help: "Lock operations by action and result",
			},
			[]string{"action", "result"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Middleware records request count and duration labelled by the chi route
// pattern, so object ids do not become label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveBytes adds n transferred bytes; direction is "upload" or "download".
func (m *Metrics) ObserveBytes(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTotal.WithLabelValues(direction).Add(float64(n))
}

// ObserveBatchObject counts one object of a batch response. result is
// "ok" or "error".
func (m *Metrics) ObserveBatchObject(operation, result string) {
	if m == nil {
		return
	}
	m.batchObjects.WithLabelValues(operation, result).Inc()
}

// ObserveLock counts one lock operation.
func (m *Metrics) ObserveLock(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.lockOps.WithLabelValues(action, result).Inc()
}
