package config

import (
	"time"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/progress"
	"github.com/papercomputeco/instagit/pkg/retry"
)

const (
	defaultServerListen = ":8787"
	defaultKafkaTopic   = "instagit.analysis"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	maxRetries := retry.DefaultMaxRetries
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			URL:     analysis.DefaultBaseURL,
			Timeout: Duration{retry.DefaultTimeout},
		},
		Retry: RetryConfig{
			MaxRetries: &maxRetries,
			BaseDelay:  Duration{retry.DefaultBaseDelay},
		},
		Progress: ProgressConfig{
			Interval: Duration{progress.DefaultInterval},
		},
		Server: ServerConfig{
			Listen: defaultServerListen,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}

// AnalysisConfig maps the resolved settings onto an analysis client
// config. The logger is left for the caller to set.
func (c *Config) AnalysisConfig() analysis.Config {
	cfg := analysis.Config{
		BaseURL:          c.API.URL,
		Timeout:          c.API.Timeout.Duration,
		BaseDelay:        c.Retry.BaseDelay.Duration,
		ProgressInterval: c.Progress.Interval.Duration,
		MaxRetries:       retry.DefaultMaxRetries,
	}
	if c.Retry.MaxRetries != nil {
		cfg.MaxRetries = *c.Retry.MaxRetries
	}
	return cfg
}

func durationOr(d Duration, fallback time.Duration) Duration {
	if d.Duration == 0 {
		return Duration{fallback}
	}
	return d
}
