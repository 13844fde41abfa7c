// Package metrics records flow lifecycle events and HTTP traffic as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reliant/configurator/pkg/domain"
)

const namespace = "configurator"

// Metrics owns a registry with the configurator collectors.
type Metrics struct {
	registry *prometheus.Registry

	pageVisits      *prometheus.CounterVec
	pageErrors      *prometheus.CounterVec
	branchPushes    prometheus.Counter
	branchDepth     prometheus.Histogram
	flowsCompleted  *prometheus.CounterVec
	flowsCancelled  *prometheus.CounterVec
	flowSteps       prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pageVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_visits_total",
			Help:      "Total number of pages entered.",
		}, []string{"page_id", "page_type"}),
		pageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_load_failures_total",
			Help:      "Total number of failed page loads.",
		}, []string{"page_id"}),
		branchPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_pushes_total",
			Help:      "Total number of nested page runs opened by a selection.",
		}),
		branchDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "branch_depth",
			Help:      "Stack depth after a nested run was opened.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		}),
		flowsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_completed_total",
			Help:      "Total number of completed configurations.",
		}, []string{"product_id"}),
		flowsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_cancelled_total",
			Help:      "Total number of abandoned configurations.",
		}, []string{"product_id"}),
		flowSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_steps",
			Help:      "Number of answered pages per completed configuration.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.pageVisits, m.pageErrors,
		m.branchPushes, m.branchDepth,
		m.flowsCompleted, m.flowsCancelled, m.flowSteps,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageEnter: func(_ context.Context, e *domain.PageEvent) {
			m.pageVisits.WithLabelValues(e.PageID, string(e.PageType)).Inc()
		},
		OnPageError: func(_ context.Context, e *domain.PageEvent) {
			m.pageErrors.WithLabelValues(e.PageID).Inc()
		},
		OnBranchPush: func(_ context.Context, e *domain.BranchEvent) {
			m.branchPushes.Inc()
			m.branchDepth.Observe(float64(e.Depth))
		},
		OnFlowComplete: func(_ context.Context, e *domain.FlowEvent) {
			m.flowsCompleted.WithLabelValues(e.ProductID).Inc()
			m.flowSteps.Observe(float64(e.Steps))
		},
		OnFlowCancel: func(_ context.Context, e *domain.FlowEvent) {
			m.flowsCancelled.WithLabelValues(e.ProductID).Inc()
		},
	}
}

// Middleware times requests, labelled by the chi route pattern so ids do not
// blow up cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
