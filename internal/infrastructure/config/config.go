package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the review service.
type Config struct {
	HTTPPort           string        `env:"HTTP_PORT,default=8080"`
	Environment        string        `env:"ENVIRONMENT,default=development"`
	LogLevel           string        `env:"LOG_LEVEL,default=info"`
	LogFormat          string        `env:"LOG_FORMAT,default=json"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	ScalerPath         string        `env:"SCALER_PATH,default=artifacts/scaler.json"`
	ClassifierPath     string        `env:"CLASSIFIER_PATH,default=artifacts/xgb_model.json"`
	EmbeddingURL       string        `env:"EMBEDDING_URL,default=http://localhost:8081"`
	EmbeddingModelID   string        `env:"EMBEDDING_MODEL_ID,default=bert-base-uncased"`
	EmbeddingMaxTokens int           `env:"EMBEDDING_MAX_TOKENS,default=512"`
	EmbeddingTimeout   time.Duration `env:"EMBEDDING_TIMEOUT,default=30s"`
	MaxRequestBytes    int64         `env:"MAX_REQUEST_BYTES,default=1048576"`
	ReadTimeout        time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout       time.Duration `env:"HTTP_WRITE_TIMEOUT,default=120s"`
	IdleTimeout        time.Duration `env:"HTTP_IDLE_TIMEOUT,default=60s"`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=30s"`
	OTLPEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT,default=localhost:4317"`
	TracingEnabled     bool          `env:"TRACING_ENABLED,default=false"`
}

// Load reads an optional .env file, then decodes the environment.
// Variables already set in the environment win over the file. A missing
// file is skipped; a malformed one is an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPPort) == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	if c.ScalerPath == "" {
		return fmt.Errorf("SCALER_PATH must not be empty")
	}
	if c.ClassifierPath == "" {
		return fmt.Errorf("CLASSIFIER_PATH must not be empty")
	}
	if c.EmbeddingURL == "" {
		return fmt.Errorf("EMBEDDING_URL must not be empty")
	}
	if c.EmbeddingMaxTokens <= 0 {
		return fmt.Errorf("EMBEDDING_MAX_TOKENS must be positive, got %d", c.EmbeddingMaxTokens)
	}
	if c.EmbeddingTimeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be positive, got %s", c.EmbeddingTimeout)
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be positive, got %d", c.MaxRequestBytes)
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
