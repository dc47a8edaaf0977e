package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	"github.com/noah-isme/lifeguard-api/internal/service"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

type recyclingServiceMock struct {
	evaluateReq  service.EvaluateRequest
	evaluateResp *service.EvaluateResponse
	evaluateErr  error
	alertsUser   string
	alertsResp   *models.AlertsResult
	alertsErr    error
}

func (m *recyclingServiceMock) Certifications() []recycling.CertificationType {
	return recycling.DefaultCatalog().Certifications()
}

func (m *recyclingServiceMock) Evaluate(req service.EvaluateRequest) (*service.EvaluateResponse, error) {
	m.evaluateReq = req
	return m.evaluateResp, m.evaluateErr
}

func (m *recyclingServiceMock) Alerts(ctx context.Context, userID string) (*models.AlertsResult, error) {
	m.alertsUser = userID
	return m.alertsResp, m.alertsErr
}

func TestRecyclingHandlerCertifications(t *testing.T) {
	handler := NewRecyclingHandler(&recyclingServiceMock{})
	c, w := newTestContext(http.MethodGet, "/certifications", nil, nil)

	handler.Certifications(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Base Pool"`)
	assert.Contains(t, w.Body.String(), `"recycling_period_years":null`)
}

func TestRecyclingHandlerEvaluateParsesDates(t *testing.T) {
	mockSvc := &recyclingServiceMock{evaluateResp: &service.EvaluateResponse{Certification: "Pro Pool"}}
	handler := NewRecyclingHandler(mockSvc)
	c, w := newTestContext(http.MethodPost, "/recycling/evaluate", `{"title":"Pro Pool","obtained_date":"2023-05-01","now":"2025-06-15T10:00:00Z"}`, nil)

	handler.Evaluate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pro Pool", mockSvc.evaluateReq.Title)
	assert.Equal(t, models.NewDate(2023, time.May, 1), mockSvc.evaluateReq.ObtainedDate)
	require.NotNil(t, mockSvc.evaluateReq.Now)
	assert.Equal(t, models.NewDate(2025, time.June, 15), *mockSvc.evaluateReq.Now)
}

func TestRecyclingHandlerEvaluateRejectsBadDate(t *testing.T) {
	handler := NewRecyclingHandler(&recyclingServiceMock{})
	c, w := newTestContext(http.MethodPost, "/recycling/evaluate", `{"title":"Pro Pool","obtained_date":"15.06.2025"}`, nil)

	handler.Evaluate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestRecyclingHandlerAlerts(t *testing.T) {
	mockSvc := &recyclingServiceMock{alertsResp: &models.AlertsResult{
		Alerts:  []recycling.Alert{{RecordID: "f1", CertName: "Pro Pool", Status: recycling.StatusExpired, DaysRemaining: -3}},
		Summary: recycling.AlertSummary{Expired: 1, Total: 1},
		AsOf:    models.NewDate(2025, time.June, 15),
	}}
	handler := NewRecyclingHandler(mockSvc)
	c, w := newTestContext(http.MethodGet, "/me/recycling/alerts", nil, userClaims("u1", models.RoleRescuer))

	handler.Alerts(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", mockSvc.alertsUser)

	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"formation_id":"f1"`)
	summary, ok := env.Meta["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, summary["expired_count"])
	assert.Equal(t, "2025-06-15", env.Meta["as_of"])
}

func TestRecyclingHandlerAlertsRequiresUser(t *testing.T) {
	handler := NewRecyclingHandler(&recyclingServiceMock{})
	c, w := newTestContext(http.MethodGet, "/me/recycling/alerts", nil, nil)

	handler.Alerts(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
