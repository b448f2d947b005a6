// Package models - API response types.
//
// The wire shapes here are contracts with deployed panel installations and
// cannot change: /update returns {url, md5}, /check_updates returns
// {changelog, url, version}, and every error is
// {"status":"error","message":...} with an optional error_type.
package models

import "time"

// UpdateAssetResponse is the /update endpoint response. When no update is
// available both fields are empty strings; the endpoint never errors for a
// client that is already at or ahead of the latest release.
type UpdateAssetResponse struct {
	URL string `json:"url"`
	MD5 string `json:"md5"`
}

// CheckUpdatesResponse is the /check_updates endpoint response. Version is
// the target (latest) version, or the echoed current version when no update
// exists; Changelog then is empty.
type CheckUpdatesResponse struct {
	Changelog []ChangelogEntry `json:"changelog"`
	URL       string           `json:"url"`
	Version   string           `json:"version"`
}

// LatestVersionResponse is the /latest endpoint response.
type LatestVersionResponse struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	MD5     string `json:"md5"`
}

// ReportResponse confirms a dispatched error report.
type ReportResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}

// NewReportResponse builds the success envelope for a dispatched batch.
func NewReportResponse(message, filename string) *ReportResponse {
	return &ReportResponse{
		Status:   "success",
		Message:  message,
		Filename: filename,
	}
}

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Status    string `json:"status"`               // Always "error"
	Message   string `json:"message"`              // Human-readable description
	ErrorType string `json:"error_type,omitempty"` // Underlying error class for diagnostics
}

// NewErrorResponse builds the error envelope. errorType may be empty for
// plain client input errors.
func NewErrorResponse(message, errorType string) *ErrorResponse {
	return &ErrorResponse{
		Status:    "error",
		Message:   message,
		ErrorType: errorType,
	}
}

// HealthCheckResponse reports service liveness.
type HealthCheckResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Health status constants.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]string),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status string) {
	h.Components[name] = status
}
