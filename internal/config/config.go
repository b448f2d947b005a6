// Package config loads the relay configuration. Precedence, lowest to
// highest: built-in defaults, YAML config file, environment variables. A
// .env file in the working directory is folded into the environment before
// the variables are read, so containerized deployments can ship one file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"updaterelay/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from the optional file path and the environment.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment applies UPDATERELAY_* environment overrides.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	setInt("UPDATERELAY_PORT", &config.Server.Port)
	setString("UPDATERELAY_HOST", &config.Server.Host)
	setDuration("UPDATERELAY_READ_TIMEOUT", &config.Server.ReadTimeout)
	setDuration("UPDATERELAY_WRITE_TIMEOUT", &config.Server.WriteTimeout)
	setDuration("UPDATERELAY_IDLE_TIMEOUT", &config.Server.IdleTimeout)
	setBool("UPDATERELAY_TLS_ENABLED", &config.Server.TLSEnabled)
	setString("UPDATERELAY_TLS_CERT_FILE", &config.Server.TLSCertFile)
	setString("UPDATERELAY_TLS_KEY_FILE", &config.Server.TLSKeyFile)
	setInt64("UPDATERELAY_MAX_REPORT_BYTES", &config.Server.MaxReportBytes)

	// Upstream provider configuration
	setString("UPDATERELAY_UPSTREAM_OWNER", &config.Upstream.Owner)
	setString("UPDATERELAY_UPSTREAM_REPO", &config.Upstream.Repo)
	setString("UPDATERELAY_UPSTREAM_TOKEN", &config.Upstream.Token)
	setString("UPDATERELAY_UPSTREAM_API_BASE_URL", &config.Upstream.APIBaseURL)
	setString("UPDATERELAY_UPSTREAM_ASSET_NAME", &config.Upstream.AssetName)
	setString("UPDATERELAY_UPSTREAM_CHECKSUM_SUFFIX", &config.Upstream.ChecksumSuffix)
	setDuration("UPDATERELAY_UPSTREAM_TIMEOUT", &config.Upstream.Timeout)

	// Telegram dispatch configuration
	setString("UPDATERELAY_TELEGRAM_TOKEN", &config.Telegram.Token)
	setString("UPDATERELAY_TELEGRAM_CHAT_ID", &config.Telegram.ChatID)
	setString("UPDATERELAY_TELEGRAM_API_BASE_URL", &config.Telegram.APIBaseURL)
	setDuration("UPDATERELAY_TELEGRAM_TIMEOUT", &config.Telegram.Timeout)

	// Cache configuration
	setDuration("UPDATERELAY_CACHE_TTL", &config.Cache.TTL)

	// Rate limit configuration
	setBool("UPDATERELAY_RATE_LIMIT_ENABLED", &config.Security.RateLimit.Enabled)
	setDuration("UPDATERELAY_RATE_LIMIT_ROUTE_WINDOW", &config.Security.RateLimit.RouteWindow)
	setInt("UPDATERELAY_RATE_LIMIT_UPDATE", &config.Security.RateLimit.UpdateLimit)
	setInt("UPDATERELAY_RATE_LIMIT_REPORT", &config.Security.RateLimit.ReportLimit)
	setInt("UPDATERELAY_RATE_LIMIT_PER_MINUTE", &config.Security.RateLimit.PerMinute)
	setInt("UPDATERELAY_RATE_LIMIT_PER_HOUR", &config.Security.RateLimit.PerHour)
	setInt("UPDATERELAY_RATE_LIMIT_PER_DAY", &config.Security.RateLimit.PerDay)
	setDuration("UPDATERELAY_RATE_LIMIT_CLEANUP_INTERVAL", &config.Security.RateLimit.CleanupInterval)

	// Logging configuration
	setString("UPDATERELAY_LOG_LEVEL", &config.Logging.Level)
	setString("UPDATERELAY_LOG_FORMAT", &config.Logging.Format)
	setString("UPDATERELAY_LOG_OUTPUT", &config.Logging.Output)
	setString("UPDATERELAY_LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics configuration
	setBool("UPDATERELAY_METRICS_ENABLED", &config.Metrics.Enabled)
	setString("UPDATERELAY_METRICS_PATH", &config.Metrics.Path)
	setInt("UPDATERELAY_METRICS_PORT", &config.Metrics.Port)

	// Observability configuration
	setString("UPDATERELAY_SERVICE_NAME", &config.Observability.ServiceName)
	setBool("UPDATERELAY_TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	setString("UPDATERELAY_TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	setString("UPDATERELAY_TRACING_OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)
}

func setString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(name string, dst *int64) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func setDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
