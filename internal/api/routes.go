package api

import (
	"encoding/json"
	"net/http"

	"updaterelay/internal/models"
	"updaterelay/internal/ratelimit"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/api/v1/health"
			}),
		))
	}
}

// RateLimitChains carries the per-route gate chains. A nil *RateLimitChains
// disables rate limiting entirely.
type RateLimitChains struct {
	Update *ratelimit.Chain // /update, /check_updates, /latest
	Report *ratelimit.Chain // /report
}

// SetupRoutes configures the HTTP routes. Two endpoint families are served:
// the bare paths the legacy panels call and their /api/v1 aliases.
func SetupRoutes(handlers *Handlers, chains *RateLimitChains, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	getUpdate := handlers.GetUpdate
	checkUpdates := handlers.CheckUpdates
	getLatest := handlers.GetLatest
	reportHandler := handlers.Report
	if chains != nil {
		getUpdate = chains.Update.Wrap(getUpdate)
		checkUpdates = chains.Update.Wrap(checkUpdates)
		getLatest = chains.Update.Wrap(getLatest)
		reportHandler = chains.Report.Wrap(reportHandler)
	}

	registerEndpoints := func(r *mux.Router) {
		r.HandleFunc("/update", getUpdate).Methods("GET")
		r.HandleFunc("/check_updates", checkUpdates).Methods("GET")
		r.HandleFunc("/latest", getLatest).Methods("GET")
		r.HandleFunc("/report", reportHandler).Methods("POST")
	}

	registerEndpoints(router)
	registerEndpoints(router.PathPrefix("/api/v1").Subrouter())

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	router.Use(securityHeadersMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = securityHeadersMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(models.NewErrorResponse("method not allowed", ""))
		}))
	router.NotFoundHandler = securityHeadersMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(models.NewErrorResponse("not found", ""))
		}))

	return router
}
