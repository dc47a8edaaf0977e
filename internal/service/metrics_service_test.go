package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordSync(models.SyncLinked, recycling.EventDiploma)
	m.RecordSync(models.SyncLinked, recycling.EventDiploma)
	m.RecordSync(models.SyncFailed, recycling.EventRecycling)
	m.RecordSyncDropped()
	m.ObserveClassifierBatch(true, 10*time.Millisecond)
	m.ObserveClassifierBatch(false, 10*time.Millisecond)
	m.RecordAlerts(recycling.AlertSummary{Expired: 2, Reminder: 1})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.syncOutcomes.WithLabelValues("linked", "diploma")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.syncOutcomes.WithLabelValues("failed", "recycling")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.syncDropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.batchFailures))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.alertsServed.WithLabelValues("expired")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.alertsServed.WithLabelValues("expiring_soon")))
}

func TestMetricsServiceHandlerExposesRequests(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/me/recycling/alerts", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/v1/me/recycling/alerts",status="200"} 1`))
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.RecordSync(models.SyncSkipped, recycling.EventDiploma)
		m.RecordAlerts(recycling.AlertSummary{})
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
