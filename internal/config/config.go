// Package config provides configuration for the interview engine.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Timeout policies for countdown expiry.
const (
	PolicyForcedSubmit   = "forced-submit"
	PolicyLiveEvaluation = "live-evaluation"
)

// Config holds the engine configuration, loaded from environment variables.
type Config struct {
	// Backend settings
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Mailbox settings
	MailboxPort int    `env:"MAILBOX_PORT" envDefault:"3000"`
	MailboxURL  string `env:"MAILBOX_URL"`

	// Engine intervals
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"3s"`
	EvalQuietPeriod time.Duration `env:"EVAL_QUIET_PERIOD" envDefault:"1s"`

	// TimeoutPolicy selects what happens when a question countdown expires:
	// forced-submit or live-evaluation.
	TimeoutPolicy string `env:"TIMEOUT_POLICY" envDefault:"forced-submit"`

	// Candidate identity forwarded to the partial-answer endpoint
	UserID string `env:"USER_ID" envDefault:"local"`
	TestID string `env:"TEST_ID" envDefault:"local"`

	// Archive
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:interviews.db?cache=shared&mode=rwc"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.MailboxURL == "" {
		cfg.MailboxURL = fmt.Sprintf("http://localhost:%d", cfg.MailboxPort)
	}

	switch cfg.TimeoutPolicy {
	case PolicyForcedSubmit, PolicyLiveEvaluation:
	default:
		return nil, fmt.Errorf("unknown timeout policy: %q", cfg.TimeoutPolicy)
	}

	return cfg, nil
}
