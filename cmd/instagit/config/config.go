// Package configcmder provides the config command for managing persistent
// instagit configuration stored in the .instagit/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent instagit configuration.

Configuration is stored as config.toml in the .instagit/ directory and
provides default values for command flags. INSTAGIT_* environment variables
override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  api.url, api.timeout,
  retry.max_retries, retry.base_delay,
  progress.interval,
  server.listen,
  events.kafka_brokers, events.kafka_topic

Use subcommands to get, set, or list configuration values:
  instagit config set <key> <value>    Set a configuration value
  instagit config get <key>            Get a configuration value
  instagit config list                 List all configuration values

Examples:
  instagit config set api.timeout 15m
  instagit config set events.kafka_brokers broker-1:9092,broker-2:9092
  instagit config get retry.max_retries
  instagit config list`

const configShortDesc string = "Manage persistent instagit configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
