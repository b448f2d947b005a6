package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"
	"updaterelay/internal/update"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUpdateService implements update.ServiceInterface with canned results.
type mockUpdateService struct {
	asset    *models.UpdateAssetResponse
	updates  *models.CheckUpdatesResponse
	latest   *models.LatestVersionResponse
	err      error
	gotInput string
}

func (m *mockUpdateService) CheckAsset(ctx context.Context, currentVersion string) (*models.UpdateAssetResponse, error) {
	m.gotInput = currentVersion
	return m.asset, m.err
}

func (m *mockUpdateService) CheckUpdates(ctx context.Context, currentVersion string) (*models.CheckUpdatesResponse, error) {
	m.gotInput = currentVersion
	return m.updates, m.err
}

func (m *mockUpdateService) Latest(ctx context.Context) (*models.LatestVersionResponse, error) {
	return m.latest, m.err
}

// mockDispatcher records the dispatched document.
type mockDispatcher struct {
	filename string
	payload  []byte
	err      error
}

func (m *mockDispatcher) SendDocument(ctx context.Context, filename string, payload []byte) error {
	m.filename = filename
	m.payload = payload
	return m.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetUpdate(t *testing.T) {
	svc := &mockUpdateService{
		asset: &models.UpdateAssetResponse{
			URL: "https://example.com/update.tar.gz",
			MD5: "0123456789abcdef0123456789abcdef",
		},
	}
	handlers := NewHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/update?version=v1.0.0", nil)
	rec := httptest.NewRecorder()
	handlers.GetUpdate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1.0.0", svc.gotInput)

	var body models.UpdateAssetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://example.com/update.tar.gz", body.URL)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", body.MD5)
}

func TestGetUpdate_ServiceErrorsMapToEnvelope(t *testing.T) {
	tests := []struct {
		name           string
		err            *update.ServiceError
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "invalid version",
			err:            update.NewInvalidVersionError("abc", models.ErrInvalidVersion),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing parameter",
			err:            update.NewMissingParameterError("version"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "upstream unavailable",
			err:            update.NewUpstreamError("failed to fetch releases", "url.Error", errors.New("refused")),
			expectedStatus: http.StatusInternalServerError,
			expectedType:   "url.Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewHandlers(&mockUpdateService{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/update?version=abc", nil)
			rec := httptest.NewRecorder()
			handlers.GetUpdate(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.err.Message, body["message"])
			assert.Equal(t, tt.expectedType, body["error_type"])
		})
	}
}

func TestCheckUpdates(t *testing.T) {
	svc := &mockUpdateService{
		updates: &models.CheckUpdatesResponse{
			Changelog: []models.ChangelogEntry{
				{Version: "v1.0.1", Changes: []string{"fixed login"}},
			},
			URL:     "https://example.com/update.tar.gz",
			Version: "v1.0.1",
		},
	}
	handlers := NewHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/check_updates?version=1.0.0", nil)
	rec := httptest.NewRecorder()
	handlers.CheckUpdates(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0.0", svc.gotInput)

	var body models.CheckUpdatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v1.0.1", body.Version)
	require.Len(t, body.Changelog, 1)
	assert.Equal(t, []string{"fixed login"}, body.Changelog[0].Changes)
}

func TestGetLatest(t *testing.T) {
	handlers := NewHandlers(&mockUpdateService{
		latest: &models.LatestVersionResponse{Version: "v1.2.0", URL: "u", MD5: "m"},
	})

	req := httptest.NewRequest(http.MethodGet, "/latest", nil)
	rec := httptest.NewRecorder()
	handlers.GetLatest(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.LatestVersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v1.2.0", body.Version)
}

func reportForm() url.Values {
	return url.Values{
		"errors[0][type]":        {"E_WARNING"},
		"errors[0][log_message]": {"disk almost full"},
		"errors[0][date]":        {"1700000000"},
		"version":                {"2.1.0"},
	}
}

func newReportRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestReport(t *testing.T) {
	dispatcher := &mockDispatcher{}
	handlers := NewHandlers(&mockUpdateService{}, WithDispatcher(dispatcher))
	handlers.now = func() time.Time {
		return time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)
	}

	rec := httptest.NewRecorder()
	handlers.Report(rec, newReportRequest(reportForm()))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Error report sent to Telegram", body.Message)
	assert.Equal(t, "errors_20240615_083045.json", body.Filename)

	assert.Equal(t, "errors_20240615_083045.json", dispatcher.filename)
	assert.Contains(t, string(dispatcher.payload), `"type": "E_WARNING"`)
	assert.Contains(t, string(dispatcher.payload), `"version": "2.1.0"`)
}

func TestReport_DispatchNotConfigured(t *testing.T) {
	handlers := NewHandlers(&mockUpdateService{})

	rec := httptest.NewRecorder()
	handlers.Report(rec, newReportRequest(reportForm()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "not configured")
}

func TestReport_NoFormData(t *testing.T) {
	handlers := NewHandlers(&mockUpdateService{}, WithDispatcher(&mockDispatcher{}))

	rec := httptest.NewRecorder()
	handlers.Report(rec, newReportRequest(url.Values{"version": {"1.0.0"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "No form data received", body["message"])
}

func TestReport_PayloadTooLarge(t *testing.T) {
	handlers := NewHandlers(&mockUpdateService{},
		WithDispatcher(&mockDispatcher{}),
		WithMaxReportBytes(64),
	)

	form := url.Values{
		"errors[0][log_message]": {strings.Repeat("x", 1024)},
	}
	rec := httptest.NewRecorder()
	handlers.Report(rec, newReportRequest(form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Contains(t, body["message"], "exceeds 64 bytes")
}

func TestReport_DispatchFailure(t *testing.T) {
	dispatcher := &mockDispatcher{
		err: &catalog.UpstreamError{Op: "send document", Err: errors.New("connection refused")},
	}
	handlers := NewHandlers(&mockUpdateService{}, WithDispatcher(dispatcher))

	rec := httptest.NewRecorder()
	handlers.Report(rec, newReportRequest(reportForm()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Telegram API error", body["message"])
	assert.Equal(t, "errors.errorString", body["error_type"])
}

func TestHealthCheck(t *testing.T) {
	handlers := NewHandlers(&mockUpdateService{},
		WithDispatcher(&mockDispatcher{}),
		WithBuildVersion("1.4.2"),
	)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handlers.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.HealthCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.StatusHealthy, body.Status)
	assert.Equal(t, "1.4.2", body.Version)
	assert.Equal(t, models.StatusHealthy, body.Components["api"])
	assert.Equal(t, models.StatusHealthy, body.Components["dispatch"])
}
