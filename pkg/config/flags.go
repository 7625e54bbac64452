package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so a flag shared by
// "instagit ask", "instagit mcp" and "instagit serve" cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "api-url").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagAPIURL           = "api-url"
	FlagTimeout          = "timeout"
	FlagMaxRetries       = "max-retries"
	FlagRetryDelay       = "retry-delay"
	FlagProgressInterval = "progress-interval"
	FlagListen           = "listen"
	FlagKafkaBrokers     = "kafka-brokers"
	FlagKafkaTopic       = "kafka-topic"
)

// AnalysisFlags are the flags every command that runs analyses exposes.
var AnalysisFlags = []string{
	FlagAPIURL,
	FlagTimeout,
	FlagMaxRetries,
	FlagRetryDelay,
	FlagProgressInterval,
}

// EventFlags configure analysis event publishing.
var EventFlags = []string{
	FlagKafkaBrokers,
	FlagKafkaTopic,
}

// Registry is the flag definitions shared by all commands.
var Registry = FlagSet{
	FlagAPIURL: {
		Name:        "api-url",
		ViperKey:    "api.url",
		Description: "Analysis service base URL",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "api.timeout",
		Description: "Time limit for each analysis attempt",
	},
	FlagMaxRetries: {
		Name:        "max-retries",
		ViperKey:    "retry.max_retries",
		Description: "Retries after the first attempt for transient failures",
	},
	FlagRetryDelay: {
		Name:        "retry-delay",
		ViperKey:    "retry.base_delay",
		Description: "Backoff before the first retry, doubled on each retry",
	},
	FlagProgressInterval: {
		Name:        "progress-interval",
		ViperKey:    "progress.interval",
		Description: "Interval between progress updates",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the HTTP server to listen on",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "events.kafka_brokers",
		Description: "Comma separated Kafka brokers for analysis events (empty disables publishing)",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "events.kafka_topic",
		Description: "Kafka topic for analysis events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddDurationFlag registers a duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, key string, target *time.Duration) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetDuration(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().DurationVar(target, def.Name, defaultVal, def.Description)
	}
}

// FlagValues holds the targets of the analysis and event flags.
type FlagValues struct {
	APIURL           string
	Timeout          time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	ProgressInterval time.Duration
	KafkaBrokers     string
	KafkaTopic       string
}

// AddAnalysisFlags registers AnalysisFlags on cmd.
func AddAnalysisFlags(cmd *cobra.Command, vals *FlagValues) {
	AddStringFlag(cmd, Registry, FlagAPIURL, &vals.APIURL)
	AddDurationFlag(cmd, Registry, FlagTimeout, &vals.Timeout)
	AddIntFlag(cmd, Registry, FlagMaxRetries, &vals.MaxRetries)
	AddDurationFlag(cmd, Registry, FlagRetryDelay, &vals.RetryDelay)
	AddDurationFlag(cmd, Registry, FlagProgressInterval, &vals.ProgressInterval)
}

// AddEventFlags registers EventFlags on cmd.
func AddEventFlags(cmd *cobra.Command, vals *FlagValues) {
	AddStringFlag(cmd, Registry, FlagKafkaBrokers, &vals.KafkaBrokers)
	AddStringFlag(cmd, Registry, FlagKafkaTopic, &vals.KafkaTopic)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper instance holding only the defaults.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
