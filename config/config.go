package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`

	DatabaseURL     string `env:"DATABASE_URL,required" validate:"required"`
	PollIntervalSec int    `env:"POLL_INTERVAL_SEC" envDefault:"1" validate:"min=1,max=60"`

	// DTWSchedulerMode selects the placement policy: "immediately",
	// "last-minute", or "energy-aware". Empty falls back to
	// DTWSchedulerLastMinute for backward compatibility; an unrecognised
	// non-empty value is a ConfigError, reported at startup.
	DTWSchedulerMode       string `env:"DTW_SCHEDULER_MODE"`
	DTWSchedulerLastMinute bool   `env:"DTW_SCHEDULER_LAST_MINUTE" envDefault:"false"`

	EnergyLongTermThresholdMin int `env:"ENERGY_LONG_TERM_THRESHOLD_MIN" envDefault:"360" validate:"min=1"`

	PriceOracleURL        string `env:"PRICE_ORACLE_URL" envDefault:"http://localhost:9500/energy-price"`
	PriceOracleTimeoutSec int    `env:"PRICE_ORACLE_TIMEOUT_SEC" envDefault:"5" validate:"min=1,max=60"`

	WorkflowEngineEndpoint string `env:"WORKFLOW_ENGINE_ENDPOINT"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	// ClerkJWKSURL is the JWKS endpoint for RS256 token verification on
	// the ops surface (Clerk). When set, it takes precedence over
	// OpsJWTSecret.
	ClerkJWKSURL string `env:"CLERK_JWKS_URL"`

	// OpsJWTSecret authenticates the ops surface in local dev / migration.
	OpsJWTSecret string `env:"OPS_JWT_SECRET"`

	// TrustSigningKey signs the internal trust tokens DTWs/cron triggers
	// carry; unrelated to the ops-surface auth above.
	TrustSigningKey string `env:"TRUST_SIGNING_KEY,required" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`
	OperatorAlertTo string `env:"OPERATOR_ALERT_TO" envDefault:"ops@example.com"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
