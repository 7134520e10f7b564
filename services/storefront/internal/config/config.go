package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/piyush182004/Fynd/pkg/config"
	"github.com/piyush182004/Fynd/pkg/tracing"
)

// EnvPrefix scopes every storefront variable, e.g. STOREFRONT_HTTP_PORT.
const EnvPrefix = "STOREFRONT_"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Feedback API
	FeedbackAPIURL    string `env:"FEEDBACK_API_URL" envDefault:"http://localhost:5000"`
	APITimeoutSeconds int    `env:"API_TIMEOUT_SECONDS" envDefault:"15"`

	// Circuit breaker around the feedback API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"15"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.6"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Per-IP limit on the submit endpoints
	SubmitRateLimitRPS   float64 `env:"SUBMIT_RATE_LIMIT_RPS" envDefault:"0.5"`
	SubmitRateLimitBurst int     `env:"SUBMIT_RATE_LIMIT_BURST" envDefault:"5"`

	// Browsers allowed to call the JSON endpoint
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Kafka. Events are only published when enabled.
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	Tracing tracing.Config `envPrefix:"OTEL_"`
}

// Load reads configuration from STOREFRONT_-prefixed environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithPrefix(cfg, EnvPrefix); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg.Tracing.ServiceName = "storefront"
	return cfg, nil
}

// APITimeout returns the per-request timeout for feedback API calls.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// Validate checks the settings that env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.FeedbackAPIURL == "" {
		return fmt.Errorf("%sFEEDBACK_API_URL is required", EnvPrefix)
	}
	if _, err := url.ParseRequestURI(c.FeedbackAPIURL); err != nil {
		return fmt.Errorf("invalid %sFEEDBACK_API_URL %q: %w", EnvPrefix, c.FeedbackAPIURL, err)
	}
	if c.APITimeoutSeconds <= 0 {
		return fmt.Errorf("%sAPI_TIMEOUT_SECONDS must be positive, got %d", EnvPrefix, c.APITimeoutSeconds)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("%sCB_FAILURE_RATIO must be in (0, 1], got %f", EnvPrefix, c.CBFailureRatio)
	}
	if c.SubmitRateLimitRPS < 0 {
		return fmt.Errorf("%sSUBMIT_RATE_LIMIT_RPS must not be negative", EnvPrefix)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("%sKAFKA_BROKERS is required when Kafka is enabled", EnvPrefix)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("%sOTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", EnvPrefix, c.Tracing.SampleRate)
	}
	return nil
}
