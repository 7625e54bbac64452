// Package wiring builds the runtime dependencies shared by the instagit
// subcommands from resolved settings.
package wiring

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/cliui"
	"github.com/papercomputeco/instagit/pkg/config"
	"github.com/papercomputeco/instagit/pkg/dotdir"
	"github.com/papercomputeco/instagit/pkg/eventstream"
	"github.com/papercomputeco/instagit/pkg/eventstream/kafka"
	"github.com/papercomputeco/instagit/pkg/eventstream/nop"
	"github.com/papercomputeco/instagit/pkg/eventstream/worker"
	"github.com/papercomputeco/instagit/pkg/logger"
	"github.com/papercomputeco/instagit/pkg/token"
)

// Persistent flag names defined on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagEnvFile   = "env-file"
)

// Settings resolves the config for cmd: defaults, config.toml, INSTAGIT_*
// environment and the registry flags named in flagKeys.
func Settings(cmd *cobra.Command, flagKeys ...[]string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	for _, keys := range flagKeys {
		config.BindRegisteredFlags(v, cmd, config.Registry, keys)
	}

	return config.FromViper(v)
}

// NewLogger returns the command logger writing to stderr plus any extra
// writers: charm's pretty handler on a terminal, text records otherwise.
func NewLogger(cmd *cobra.Command, extra ...io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	pretty := cliui.DetectTerminal(os.Stderr).IsTTY

	console := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(pretty),
		logger.WithWriter(os.Stderr),
	)
	if len(extra) == 0 {
		return console
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriters(extra...),
	)
	return logger.Multi(console, file)
}

// NewAnalyzer builds the analysis client for cfg.
func NewAnalyzer(cfg *config.Config, log *slog.Logger) (*analysis.Client, error) {
	ac := cfg.AnalysisConfig()
	ac.Logger = log

	client, err := analysis.NewClient(ac)
	if err != nil {
		return nil, fmt.Errorf("creating analysis client: %w", err)
	}
	return client, nil
}

// NewTokenProvider builds the token provider over the token cache in the
// resolved dot directory.
func NewTokenProvider(cmd *cobra.Command, cfg *config.Config, log *slog.Logger) (*token.Provider, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving token dir: %w", err)
	}

	return token.NewProvider(token.Config{
		APIURL: cfg.API.URL,
		Store:  token.NewStore(dir),
		Logger: log,
	})
}

// Events is the analysis event pipeline: a publisher behind a worker pool.
type Events struct {
	Pool      *worker.Pool
	Publisher eventstream.Publisher
}

// NewEvents starts the event pipeline. Without Kafka brokers events go to a
// no-op publisher.
func NewEvents(cfg *config.Config, log *slog.Logger) (*Events, error) {
	var publisher eventstream.Publisher = nop.NewPublisher()

	if len(cfg.Events.KafkaBrokers) > 0 {
		kp, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.KafkaBrokers,
			Topic:   cfg.Events.KafkaTopic,
			Logger:  log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		publisher = kp

		log.Info("publishing analysis events",
			"brokers", cfg.Events.KafkaBrokers,
			"topic", cfg.Events.KafkaTopic,
		)
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		return nil, errors.Join(err, publisher.Close())
	}

	return &Events{Pool: pool, Publisher: publisher}, nil
}

// Close drains queued events and closes the publisher.
func (e *Events) Close() error {
	e.Pool.Close()
	return e.Publisher.Close()
}
