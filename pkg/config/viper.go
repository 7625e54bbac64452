package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papercomputeco/instagit/pkg/dotdir"
)

// EnvPrefix is prepended to every environment variable viper reads, so
// api.url is read from INSTAGIT_API_URL.
const EnvPrefix = "INSTAGIT"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the INSTAGIT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (INSTAGIT_API_URL, INSTAGIT_RETRY_MAX_RETRIES, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables already set are left alone. Call it before
// InitViper so the values take part in the precedence chain.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// FromViper materializes the resolved settings into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	maxRetries := v.GetInt("retry.max_retries")
	if maxRetries < 0 {
		return nil, fmt.Errorf("retry.max_retries must not be negative, got %d", maxRetries)
	}

	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			URL:     strings.TrimRight(v.GetString("api.url"), "/"),
			Timeout: Duration{v.GetDuration("api.timeout")},
		},
		Retry: RetryConfig{
			MaxRetries: &maxRetries,
			BaseDelay:  Duration{v.GetDuration("retry.base_delay")},
		},
		Progress: ProgressConfig{
			Interval: Duration{v.GetDuration("progress.interval")},
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Events: EventsConfig{
			KafkaBrokers: SplitList(v.GetStringSlice("events.kafka_brokers")...),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
	}

	applyDefaults(cfg)

	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.timeout", d.API.Timeout.Duration)

	v.SetDefault("retry.max_retries", *d.Retry.MaxRetries)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay.Duration)

	v.SetDefault("progress.interval", d.Progress.Interval.Duration)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)
}
