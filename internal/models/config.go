// Package models - service configuration.
//
// Configuration Philosophy:
// - Hierarchical grouping by component (server, upstream, telegram, ...)
// - Defaults that run out of the box against a public repository
// - Validation catches misconfiguration at startup, not per request
package models

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration for the relay.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server settings
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // Release-hosting provider
	Telegram      TelegramConfig      `yaml:"telegram" json:"telegram"`           // Error-report dispatch
	Cache         CacheConfig         `yaml:"cache" json:"cache"`                 // Catalog snapshot cache
	Security      SecurityConfig      `yaml:"security" json:"security"`           // Rate limiting
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Structured logging
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing
}

type ServerConfig struct {
	Port           int           `yaml:"port" json:"port"`
	Host           string        `yaml:"host" json:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled     bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile    string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile     string        `yaml:"tls_key_file" json:"tls_key_file"`
	MaxReportBytes int64         `yaml:"max_report_bytes" json:"max_report_bytes"`
}

// UpstreamConfig identifies the repository whose releases are relayed.
type UpstreamConfig struct {
	Owner          string        `yaml:"owner" json:"owner"`
	Repo           string        `yaml:"repo" json:"repo"`
	Token          string        `yaml:"token" json:"token"`                     // Optional bearer token, raises the provider's own rate limit
	APIBaseURL     string        `yaml:"api_base_url" json:"api_base_url"`       // Override for tests
	AssetName      string        `yaml:"asset_name" json:"asset_name"`           // Update archive asset to look for
	ChecksumSuffix string        `yaml:"checksum_suffix" json:"checksum_suffix"` // Sibling checksum asset suffix
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// TelegramConfig holds the chat dispatch credentials. Token and ChatID must
// be set together; when both are empty the report endpoint is disabled.
type TelegramConfig struct {
	Token      string        `yaml:"token" json:"token"`
	ChatID     string        `yaml:"chat_id" json:"chat_id"`
	APIBaseURL string        `yaml:"api_base_url" json:"api_base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig configures the hierarchical fixed-window limiter. Route
// limits apply per RouteWindow; the global limits apply per minute, hour
// and day respectively. A request must pass its route limit and every
// global limit.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	RouteWindow     time.Duration `yaml:"route_window" json:"route_window"`
	UpdateLimit     int           `yaml:"update_limit" json:"update_limit"`
	ReportLimit     int           `yaml:"report_limit" json:"report_limit"`
	PerMinute       int           `yaml:"per_minute" json:"per_minute"`
	PerHour         int           `yaml:"per_hour" json:"per_hour"`
	PerDay          int           `yaml:"per_day" json:"per_day"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig returns a configuration with working defaults. Upstream
// owner/repo and Telegram credentials have no sensible defaults and must be
// provided by file or environment.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxReportBytes: 1 << 20,
		},
		Upstream: UpstreamConfig{
			APIBaseURL:     "https://api.github.com",
			AssetName:      "update.tar.gz",
			ChecksumSuffix: ".md5",
			Timeout:        10 * time.Second,
		},
		Telegram: TelegramConfig{
			APIBaseURL: "https://api.telegram.org",
			Timeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:         true,
				RouteWindow:     time.Minute,
				UpdateLimit:     30,
				ReportLimit:     10,
				PerMinute:       60,
				PerHour:         1000,
				PerDay:          10000,
				CleanupInterval: 5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "updaterelay",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

// Validate checks the configuration for inconsistencies that would fail at
// request time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxReportBytes <= 0 {
		return errors.New("max_report_bytes must be positive")
	}
	if c.Server.TLSEnabled && (c.Server.TLSCertFile == "" || c.Server.TLSKeyFile == "") {
		return errors.New("tls enabled but cert or key file not set")
	}

	if c.Upstream.Owner == "" || c.Upstream.Repo == "" {
		return errors.New("upstream owner and repo are required")
	}
	if c.Upstream.AssetName == "" {
		return errors.New("upstream asset_name is required")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}

	// Both or neither: a token without a chat (or vice versa) is always a
	// deployment mistake.
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram token and chat_id must be set together")
	}
	if c.Telegram.Timeout <= 0 {
		return errors.New("telegram timeout must be positive")
	}

	if c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}

	if c.Security.RateLimit.Enabled {
		rl := c.Security.RateLimit
		if rl.RouteWindow <= 0 {
			return errors.New("rate limit route_window must be positive")
		}
		if rl.UpdateLimit <= 0 || rl.ReportLimit <= 0 {
			return errors.New("rate limit route limits must be positive")
		}
		if rl.PerMinute <= 0 || rl.PerHour <= 0 || rl.PerDay <= 0 {
			return errors.New("rate limit global limits must be positive")
		}
		if rl.CleanupInterval <= 0 {
			return errors.New("rate limit cleanup_interval must be positive")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	return nil
}

// DispatchConfigured reports whether the Telegram credentials are present.
func (c *Config) DispatchConfigured() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != ""
}
