// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrGeminiAPIKeyRequired is returned when GEMINI_API_KEY is not set.
	ErrGeminiAPIKeyRequired = errors.New("config: GEMINI_API_KEY is required")
	// ErrAWSCredentialsRequired is returned when the AWS key pair is not set.
	ErrAWSCredentialsRequired = errors.New("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Provider credentials
	GeminiAPIKey       string `env:"GEMINI_API_KEY, required" json:"-"`      // Masked in JSON
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID, required" json:"-"`   // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY, required" json:"-"` // Masked in JSON
	AWSRegion          string `env:"AWS_REGION, default=us-east-1" json:"aws_region"`
	ElevenLabsAPIKey   string `env:"ELEVENLABS_API_KEY" json:"-"` // Optional, masked in JSON

	// Object storage settings. When the bucket is unset the service falls
	// back to disk-backed storage under StorageDir.
	S3Bucket   string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region   string `env:"S3_REGION, default=auto" json:"s3_region,omitempty"`
	S3Endpoint string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	StorageDir string `env:"STORAGE_DIR" json:"storage_dir,omitempty"`

	// PublicBaseURL is the externally reachable URL of this service, used
	// for presigned URLs in local storage mode.
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080" json:"public_base_url"`

	// Pipeline settings
	JobTTL     time.Duration `env:"JOB_TTL, default=1h" json:"job_ttl"`
	PresignTTL time.Duration `env:"PRESIGN_TTL, default=15m" json:"presign_ttl"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if object-storage configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "GEMINI_API_KEY") {
			return nil, ErrGeminiAPIKeyRequired
		}
		if strings.Contains(err.Error(), "AWS_ACCESS_KEY_ID") ||
			strings.Contains(err.Error(), "AWS_SECRET_ACCESS_KEY") {
			return nil, ErrAWSCredentialsRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return ErrGeminiAPIKeyRequired
	}
	if c.AWSAccessKeyID == "" || c.AWSSecretAccessKey == "" {
		return ErrAWSCredentialsRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, AWSRegion: %s, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, JobTTL: %s, PresignTTL: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.AWSRegion,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		c.JobTTL,
		c.PresignTTL,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
