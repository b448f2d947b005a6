package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"
	"updaterelay/internal/report"
	"updaterelay/internal/telegram"
	"updaterelay/internal/update"
)

// Handlers contains the HTTP handlers for the relay API.
type Handlers struct {
	updateService  update.ServiceInterface
	dispatcher     telegram.Dispatcher // nil when Telegram is not configured
	maxReportBytes int64
	buildVersion   string
	now            func() time.Time
}

// HandlerOption configures optional handler behavior.
type HandlerOption func(*Handlers)

// WithDispatcher wires the error-report dispatch collaborator.
func WithDispatcher(d telegram.Dispatcher) HandlerOption {
	return func(h *Handlers) {
		h.dispatcher = d
	}
}

// WithMaxReportBytes caps the accepted /report body size.
func WithMaxReportBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		h.maxReportBytes = n
	}
}

// WithBuildVersion sets the version reported by the health endpoint.
func WithBuildVersion(v string) HandlerOption {
	return func(h *Handlers) {
		h.buildVersion = v
	}
}

// NewHandlers creates a handlers instance over the update service.
func NewHandlers(updateService update.ServiceInterface, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		updateService:  updateService,
		maxReportBytes: 1 << 20,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GetUpdate handles asset lookups for the panel's updater.
// GET /update?version=vX.Y.Z
func (h *Handlers) GetUpdate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.updateService.CheckAsset(r.Context(), r.URL.Query().Get("version"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// CheckUpdates handles the richer update check with aggregated changelog.
// GET /check_updates?version=X.Y.Z
func (h *Handlers) CheckUpdates(w http.ResponseWriter, r *http.Request) {
	resp, err := h.updateService.CheckUpdates(r.Context(), r.URL.Query().Get("version"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// GetLatest reports the newest known release.
// GET /latest
func (h *Handlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	resp, err := h.updateService.Latest(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// Report accepts a form-encoded error batch and forwards it to the chat
// dispatch as a JSON document.
// POST /report
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		h.writeServiceError(w, update.NewConfigMissingError("error report dispatch"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxReportBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(w, update.NewPayloadTooLargeError(h.maxReportBytes))
			return
		}
		h.writeErrorResponse(w, http.StatusBadRequest, "malformed form data", "")
		return
	}

	batch, err := report.Format(r.PostForm, h.now())
	if err != nil {
		if errors.Is(err, report.ErrNoFormData) {
			h.writeServiceError(w, update.NewNoFormDataError())
			return
		}
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	payload, err := batch.Payload()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "failed to serialize report", fmt.Sprintf("%T", err))
		return
	}

	filename := batch.Filename()
	if err := h.dispatcher.SendDocument(r.Context(), filename, payload); err != nil {
		var upstream *catalog.UpstreamError
		if errors.As(err, &upstream) {
			h.writeServiceError(w, update.NewUpstreamError("Telegram API error", upstream.ErrorType(), err))
			return
		}
		h.writeServiceError(w, update.NewUpstreamError("Telegram API error", "", err))
		return
	}

	h.writeJSONResponse(w, http.StatusOK,
		models.NewReportResponse("Error report sent to Telegram", filename))
}

// HealthCheck reports liveness.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := models.NewHealthCheckResponse(models.StatusHealthy)
	resp.Version = h.buildVersion
	resp.AddComponent("api", models.StatusHealthy)
	if h.dispatcher != nil {
		resp.AddComponent("dispatch", models.StatusHealthy)
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeServiceError maps a service error onto the wire envelope. Unknown
// error types are treated as internal failures.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *update.ServiceError
	if errors.As(err, &svcErr) {
		h.writeErrorResponse(w, svcErr.StatusCode, svcErr.Message, svcErr.ErrorType)
		return
	}
	h.writeErrorResponse(w, http.StatusInternalServerError, "internal server error", fmt.Sprintf("%T", err))
}

// writeErrorResponse writes the error envelope.
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, message, errorType string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorType))
}
