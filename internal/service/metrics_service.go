package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels recorded for classroom operations.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// repository queries and classroom operations.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	operations      *prometheus.CounterVec
	rowsCreated     *prometheus.CounterVec
	recipients      prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
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

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_operations_total",
		Help: "Classroom operations by name and outcome",
	}, []string{"operation", "outcome"})

	rowsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_rows_created_total",
		Help: "Teachers, students and registrations created by registration requests",
	}, []string{"entity"})

	recipients := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "classroom_notification_recipients",
		Help:    "Number of recipients resolved per notification",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, operations, rowsCreated, recipients, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		operations:      operations,
		rowsCreated:     rowsCreated,
		recipients:      recipients,
	}
}

// Registry exposes the underlying registry, mainly for tests.
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

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordOperation counts a finished classroom operation.
func (m *MetricsService) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordCreated counts rows created by a committed registration.
func (m *MetricsService) RecordCreated(entity string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowsCreated.WithLabelValues(entity).Add(float64(count))
}

// ObserveRecipients records the size of a resolved recipient list.
func (m *MetricsService) ObserveRecipients(count int) {
	if m == nil {
		return
	}
	m.recipients.Observe(float64(count))
}
