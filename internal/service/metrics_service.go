package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	votes               *prometheus.CounterVec
	adminMutations      *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	teachers            prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	votes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rating_votes_total",
		Help: "Rating submissions by outcome (accepted, already_voted, invalid, unknown_teacher)",
	}, []string{"outcome"})

	adminMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_mutations_total",
		Help: "Successful admin mutations by resource and action",
	}, []string{"resource", "action"})

	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "persistence_failures_total",
		Help: "Failed rewrites of a backing file",
	}, []string{"store"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Listing cache lookups by result",
	}, []string{"result"})

	teachers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teachers_stored",
		Help: "Number of teacher records currently stored",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, votes, adminMutations, persistenceFailures, cacheLookups, teachers, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		votes:               votes,
		adminMutations:      adminMutations,
		persistenceFailures: persistenceFailures,
		cacheLookups:        cacheLookups,
		teachers:            teachers,
	}
}

// Registry exposes the underlying registry (used by tests).
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordVote counts a rating submission outcome.
func (m *MetricsService) RecordVote(outcome string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(outcome).Inc()
}

// RecordAdminMutation counts a successful admin write.
func (m *MetricsService) RecordAdminMutation(resource, action string) {
	if m == nil {
		return
	}
	m.adminMutations.WithLabelValues(resource, action).Inc()
}

// RecordPersistenceFailure counts a failed file rewrite for store.
func (m *MetricsService) RecordPersistenceFailure(store string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(store).Inc()
}

// RecordCacheLookup counts a listing cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetTeacherCount updates the stored-teachers gauge.
func (m *MetricsService) SetTeacherCount(n int) {
	if m == nil {
		return
	}
	m.teachers.Set(float64(n))
}
