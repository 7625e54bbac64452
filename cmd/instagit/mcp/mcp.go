// Package mcpcmder provides the mcp command serving the ask_repo tool over
// stdio.
package mcpcmder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/instagit/api/mcp"
	"github.com/papercomputeco/instagit/cmd/instagit/wiring"
	"github.com/papercomputeco/instagit/pkg/config"
)

type mcpCommander struct {
	flags  config.FlagValues
	logger *slog.Logger
}

const mcpLongDesc string = `Serve the ask_repo tool to an MCP client over stdio.

Configure this command as a stdio MCP server in your client. Logs are
written to stderr; stdout carries the protocol.

Example client configuration:
  {
    "mcpServers": {
      "instagit": {
        "command": "instagit",
        "args": ["mcp"],
        "env": { "INSTAGIT_API_KEY": "..." }
      }
    }
  }`

const mcpShortDesc string = "Serve the ask_repo MCP tool over stdio"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.Settings(cmd, config.AnalysisFlags, config.EventFlags)
			if err != nil {
				return err
			}
			cmder.logger = wiring.NewLogger(cmd)

			cmd.SilenceUsage = true
			return cmder.run(cmd, cfg)
		},
	}

	config.AddAnalysisFlags(cmd, &cmder.flags)
	config.AddEventFlags(cmd, &cmder.flags)

	return cmd
}

func (c *mcpCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := wiring.NewAnalyzer(cfg, c.logger)
	if err != nil {
		return err
	}

	tokens, err := wiring.NewTokenProvider(cmd, cfg, c.logger)
	if err != nil {
		return err
	}

	events, err := wiring.NewEvents(cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := events.Close(); err != nil {
			c.logger.Warn("closing event publisher", "error", err)
		}
	}()

	server, err := mcp.NewServer(mcp.Config{
		Analyzer: analyzer,
		Tokens:   tokens,
		APIURL:   cfg.API.URL,
		Events:   events.Pool,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	c.logger.Info("serving MCP over stdio", "api_url", cfg.API.URL)

	err = server.RunStdio(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
