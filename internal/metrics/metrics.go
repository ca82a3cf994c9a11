// Package metrics provides Prometheus instrumentation for the API server.
//
// HTTP requests are counted and timed per route pattern, and every call to
// the AI provider is counted and timed per operation. All methods are safe
// on a nil *Metrics, which disables instrumentation.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aps_helper"

type Metrics struct {
	// RequestsTotal counts HTTP requests. Labels: method, route, status.
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds times HTTP requests. Labels: method, route.
	RequestDurationSeconds *prometheus.HistogramVec

	// AICallsTotal counts AI provider calls. Labels: operation, status.
	AICallsTotal *prometheus.CounterVec

	// AICallDurationSeconds times AI provider calls. Labels: operation.
	AICallDurationSeconds *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them on a fresh registry, so tests
// and multiple servers in one process never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		AICallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "AI provider calls by operation (chat, tag, assess, embed) and status.",
		}, []string{"operation", "status"}),
		AICallDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "AI provider call latency by operation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
		}, []string{"operation"}),
		gatherer: reg,
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDurationSeconds, m.AICallsTotal, m.AICallDurationSeconds)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records every request under its chi route pattern, keeping
// label cardinality independent of ids in the path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
	})
}

// ObserveAICall records one provider call that began at started.
func (m *Metrics) ObserveAICall(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	default:
		status = "error"
	}
	m.AICallsTotal.WithLabelValues(operation, status).Inc()
	m.AICallDurationSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
