package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"updaterelay/internal/api"
	"updaterelay/internal/catalog"
	"updaterelay/internal/config"
	"updaterelay/internal/logger"
	"updaterelay/internal/models"
	"updaterelay/internal/observability"
	"updaterelay/internal/ratelimit"
	"updaterelay/internal/telegram"
	"updaterelay/internal/update"
	"updaterelay/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Build the release catalog: provider client, optional instrumentation,
	// TTL cache on top.
	var source catalog.Source = catalog.NewClient(cfg.Upstream)
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedSource(source)
		if err != nil {
			slog.Error("Failed to create instrumented catalog source", "error", err)
			os.Exit(1)
		}
		source = instrumented
	}
	cache := catalog.NewCache(source, cfg.Cache.TTL)

	// Initialize update service
	updateService := update.NewService(cache, cfg.Upstream.Owner, cfg.Upstream.Repo)

	// Initialize HTTP handlers; error-report dispatch is wired only when
	// Telegram credentials are configured.
	handlerOpts := []api.HandlerOption{
		api.WithMaxReportBytes(cfg.Server.MaxReportBytes),
		api.WithBuildVersion(ver.Version),
	}
	if cfg.DispatchConfigured() {
		handlerOpts = append(handlerOpts, api.WithDispatcher(telegram.NewClient(cfg.Telegram)))
	} else {
		slog.Warn("Telegram credentials not configured, /report endpoint disabled")
	}
	handlers := api.NewHandlers(updateService, handlerOpts...)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	// Initialize rate limiting if enabled
	var chains *api.RateLimitChains
	if cfg.Security.RateLimit.Enabled {
		var cleanup func()
		chains, cleanup = buildRateLimitChains(cfg.Security.RateLimit)
		defer cleanup()
	}

	router := api.SetupRoutes(handlers, chains, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"upstream", fmt.Sprintf("%s/%s", cfg.Upstream.Owner, cfg.Upstream.Repo),
		)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// buildRateLimitChains constructs the per-route gate chains. Both routes
// share the same global minute/hour/day limiters so a client cannot double
// its global budget by splitting traffic across endpoints. The returned
// cleanup stops every limiter's eviction goroutine.
func buildRateLimitChains(rl models.RateLimitConfig) (*api.RateLimitChains, func()) {
	updateLimiter := ratelimit.NewMemoryLimiter(rl.UpdateLimit, rl.RouteWindow, rl.CleanupInterval)
	reportLimiter := ratelimit.NewMemoryLimiter(rl.ReportLimit, rl.RouteWindow, rl.CleanupInterval)
	perMinute := ratelimit.NewMemoryLimiter(rl.PerMinute, time.Minute, rl.CleanupInterval)
	perHour := ratelimit.NewMemoryLimiter(rl.PerHour, time.Hour, rl.CleanupInterval)
	perDay := ratelimit.NewMemoryLimiter(rl.PerDay, 24*time.Hour, rl.CleanupInterval)

	globalGates := []ratelimit.Gate{
		{Scope: "global-minute", Limiter: perMinute},
		{Scope: "global-hour", Limiter: perHour},
		{Scope: "global-day", Limiter: perDay},
	}

	chains := &api.RateLimitChains{
		Update: ratelimit.NewChain(append([]ratelimit.Gate{{Scope: "update", Limiter: updateLimiter}}, globalGates...)...),
		Report: ratelimit.NewChain(append([]ratelimit.Gate{{Scope: "report", Limiter: reportLimiter}}, globalGates...)...),
	}

	cleanup := func() {
		updateLimiter.Close()
		reportLimiter.Close()
		perMinute.Close()
		perHour.Close()
		perDay.Close()
	}

	return chains, cleanup
}
