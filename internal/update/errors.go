package update

import (
	"fmt"
	"net/http"
)

// Error codes used internally and in logs. The wire envelope carries only
// message and error_type; the code selects the HTTP status.
const (
	CodeInvalidVersion      = "INVALID_VERSION"
	CodeMissingParameter    = "MISSING_PARAMETER"
	CodeNoFormData          = "NO_FORM_DATA"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeConfigMissing       = "CONFIG_MISSING"
	CodeRateLimited         = "RATE_LIMITED"
)

// ServiceError carries HTTP context for a request-level failure. Every
// entry in the taxonomy is recoverable at the request boundary; nothing
// here is fatal to the process.
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	ErrorType  string // Underlying error class for the error_type field
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors, one per taxonomy entry.

func NewInvalidVersionError(version string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidVersion,
		Message:    fmt.Sprintf("invalid version format: %s", version),
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewMissingParameterError(name string) *ServiceError {
	return &ServiceError{
		Code:       CodeMissingParameter,
		Message:    fmt.Sprintf("missing required parameter: %s", name),
		StatusCode: http.StatusBadRequest,
	}
}

func NewNoFormDataError() *ServiceError {
	return &ServiceError{
		Code:       CodeNoFormData,
		Message:    "No form data received",
		StatusCode: http.StatusBadRequest,
	}
}

func NewPayloadTooLargeError(limit int64) *ServiceError {
	return &ServiceError{
		Code:       CodePayloadTooLarge,
		Message:    fmt.Sprintf("request body exceeds %d bytes", limit),
		StatusCode: http.StatusBadRequest,
	}
}

func NewUpstreamError(message, errorType string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeUpstreamUnavailable,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		ErrorType:  errorType,
		Err:        err,
	}
}

func NewConfigMissingError(what string) *ServiceError {
	return &ServiceError{
		Code:       CodeConfigMissing,
		Message:    fmt.Sprintf("%s is not configured", what),
		StatusCode: http.StatusInternalServerError,
	}
}
