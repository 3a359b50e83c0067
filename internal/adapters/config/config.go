package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"aegis/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Engine        EngineConfig
	Decision      DecisionConfig
	Providers     ProviderConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"aegis"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type ServerConfig struct {
	Port           int           `envconfig:"HTTP_PORT" default:"8080"`
	StreamInterval time.Duration `envconfig:"STATUS_STREAM_INTERVAL" default:"500ms"`
}

// EngineConfig tunes the orchestration pipeline.
// ProgressSteps and StepPause drive the observable progress ramp;
// they exist so dashboards can poll intermediate values, not to do work.
type EngineConfig struct {
	ProgressSteps int           `envconfig:"ENGINE_PROGRESS_STEPS" default:"5"`
	StepPause     time.Duration `envconfig:"ENGINE_STEP_PAUSE" default:"300ms"`
	DebatePause   time.Duration `envconfig:"ENGINE_DEBATE_PAUSE" default:"800ms"`
	FetchTimeout  time.Duration `envconfig:"ENGINE_FETCH_TIMEOUT" default:"5s"`
}

// DecisionConfig holds the approval policy thresholds.
//
// NOTE: the two upstream orchestrator implementations disagreed on these
// values and on whether the jurisdiction boundary is inclusive. We follow
// the more complete one: risk and confidence comparisons are strict,
// the jurisdiction minimum is inclusive. Keep them configurable.
type DecisionConfig struct {
	MaxRiskScore         float64 `envconfig:"DECISION_MAX_RISK_SCORE" default:"0.35"`
	MinConfidence        float64 `envconfig:"DECISION_MIN_CONFIDENCE" default:"0.75"`
	MinJurisdictionScore float64 `envconfig:"DECISION_MIN_JURISDICTION_SCORE" default:"0.85"`
}

type ProviderConfig struct {
	RandomSeed     int64         `envconfig:"PROVIDER_RANDOM_SEED" default:"0"`
	RateLimitRPS   float64       `envconfig:"PROVIDER_RATE_LIMIT_RPS" default:"10"`
	SimulatedDelay time.Duration `envconfig:"PROVIDER_SIMULATED_DELAY" default:"100ms"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
