package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hrdash/internal/dashboard"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Uploads
	MaxUploadMB         int
	UploadRatePerMinute int

	// Sessions
	SessionTTL      time.Duration
	SessionCapacity int

	// Derivation
	DuplicatePolicy string
	StrictColumns   bool
	ColumnMap       string

	// Observability
	MetricsEnabled bool
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		MaxUploadMB:         getEnvInt("MAX_UPLOAD_MB", 10),
		UploadRatePerMinute: getEnvInt("UPLOAD_RATE_PER_MINUTE", 30),

		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionCapacity: getEnvInt("SESSION_CAPACITY", 256),

		DuplicatePolicy: getEnv("DUPLICATE_POLICY", string(dashboard.DuplicatesFirst)),
		StrictColumns:   getEnvBool("STRICT_COLUMNS", false),
		ColumnMap:       getEnv("COLUMN_MAP", ""),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.MaxUploadMB < 1 || c.MaxUploadMB > 100 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d MB: must be between 1 and 100", c.MaxUploadMB))
	}

	if c.UploadRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload rate %d: must be at least 1 per minute", c.UploadRatePerMinute))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 24 hours", c.SessionTTL))
	}

	if c.SessionCapacity < 1 {
		errors = append(errors, fmt.Sprintf("invalid session capacity %d: must be at least 1", c.SessionCapacity))
	}

	if _, err := dashboard.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := dashboard.ParseColumnMap(c.ColumnMap); err != nil {
		errors = append(errors, fmt.Sprintf("invalid COLUMN_MAP: %v", err))
	}

	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// DeriveOptions builds the derivation options. Call after Validate.
func (c *Config) DeriveOptions() (dashboard.Options, error) {
	schema, err := dashboard.ParseColumnMap(c.ColumnMap)
	if err != nil {
		return dashboard.Options{}, err
	}
	policy, err := dashboard.ParseDuplicatePolicy(c.DuplicatePolicy)
	if err != nil {
		return dashboard.Options{}, err
	}
	return dashboard.Options{Schema: schema, Duplicates: policy}, nil
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
