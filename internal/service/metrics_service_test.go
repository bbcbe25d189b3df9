package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, l := range metric.GetLabel() {
				if v, ok := labels[l.GetName()]; ok && v == l.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsServiceCollects(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodPost, "/api/register", http.StatusNoContent, 15*time.Millisecond)
	m.ObserveDBQuery("teachers.find_or_create", time.Millisecond)
	m.RecordOperation(OpSuspend, OutcomeSuccess)
	m.RecordCreated("student", 3)
	m.RecordCreated("student", 0)
	m.ObserveRecipients(4)

	assert.Equal(t, 1.0, counterValue(t, m, "http_requests_total", map[string]string{"method": "POST", "path": "/api/register", "status": "204"}))
	assert.Equal(t, 1.0, counterValue(t, m, "classroom_operations_total", map[string]string{"operation": OpSuspend, "outcome": OutcomeSuccess}))
	assert.Equal(t, 3.0, counterValue(t, m, "classroom_rows_created_total", map[string]string{"entity": "student"}))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "classroom_notification_recipients_count 1")
	assert.Contains(t, w.Body.String(), "db_query_duration_seconds")
	assert.Contains(t, w.Body.String(), "goroutines_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveDBQuery("x", time.Millisecond)
		m.RecordOperation(OpRegister, OutcomeError)
		m.RecordCreated("teacher", 1)
		m.ObserveRecipients(1)
	})
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
