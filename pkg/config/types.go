package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent instagit configuration stored as
// config.toml in the .instagit/ directory.
type Config struct {
	Version  int            `toml:"version"`
	API      APIConfig      `toml:"api"`
	Retry    RetryConfig    `toml:"retry"`
	Progress ProgressConfig `toml:"progress"`
	Server   ServerConfig   `toml:"server"`
	Events   EventsConfig   `toml:"events"`
}

// APIConfig holds settings for the analysis service.
type APIConfig struct {
	URL     string   `toml:"url,omitempty"`
	Timeout Duration `toml:"timeout,omitempty"`
}

// RetryConfig holds the retry budget. A nil MaxRetries means the default.
type RetryConfig struct {
	MaxRetries *int     `toml:"max_retries,omitempty"`
	BaseDelay  Duration `toml:"base_delay,omitempty"`
}

// ProgressConfig holds progress reporting settings.
type ProgressConfig struct {
	Interval Duration `toml:"interval,omitempty"`
}

// ServerConfig holds settings for "instagit serve".
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds analysis event publishing settings. Publishing is off
// while no brokers are configured.
type EventsConfig struct {
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty"`
}

// Duration is a time.Duration stored as a string ("30m", "5s") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// IsZero lets the TOML encoder omit unset durations.
func (d Duration) IsZero() bool {
	return d.Duration == 0
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func durationKey(key string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			d := field(c)
			if d.Duration == 0 {
				return ""
			}
			return d.String()
		},
		set: func(c *Config, v string) error {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if parsed <= 0 {
				return fmt.Errorf("invalid value for %s: must be positive", key)
			}
			field(c).Duration = parsed
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.url": {
		get: func(c *Config) string { return c.API.URL },
		set: func(c *Config, v string) error { c.API.URL = strings.TrimRight(v, "/"); return nil },
	},
	"api.timeout": durationKey("api.timeout", func(c *Config) *Duration { return &c.API.Timeout }),
	"retry.max_retries": {
		get: func(c *Config) string {
			if c.Retry.MaxRetries == nil {
				return ""
			}
			return strconv.Itoa(*c.Retry.MaxRetries)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for retry.max_retries: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for retry.max_retries: must not be negative")
			}
			c.Retry.MaxRetries = &n
			return nil
		},
	},
	"retry.base_delay":  durationKey("retry.base_delay", func(c *Config) *Duration { return &c.Retry.BaseDelay }),
	"progress.interval": durationKey("progress.interval", func(c *Config) *Duration { return &c.Progress.Interval }),
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.KafkaBrokers, ",") },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = SplitList(v); return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
}

// SplitList splits comma separated values, dropping blanks.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
