// Package servecmder provides the serve command running the MCP server over
// streamable HTTP.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/instagit/api"
	"github.com/papercomputeco/instagit/api/mcp"
	"github.com/papercomputeco/instagit/cmd/instagit/wiring"
	"github.com/papercomputeco/instagit/pkg/config"
)

type ServeCommander struct {
	flags   config.FlagValues
	listen  string
	logFile string
	logger  *slog.Logger
}

const serveLongDesc string = `Run the Instagit HTTP server.

The server exposes:
  GET /ping    Health check
  ALL /mcp     The ask_repo tool over streamable HTTP MCP

Finished analyses are published as events to Kafka when --kafka-brokers
is set.`

const serveShortDesc string = "Run the Instagit HTTP server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.Settings(cmd, config.AnalysisFlags, config.EventFlags, []string{config.FlagListen})
			if err != nil {
				return err
			}

			var extra []io.Writer
			if cmder.logFile != "" {
				f, err := os.OpenFile(cmder.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				extra = append(extra, f)
			}
			cmder.logger = wiring.NewLogger(cmd, extra...)

			cmd.SilenceUsage = true
			return cmder.run(cmd, cfg)
		},
	}

	config.AddAnalysisFlags(cmd, &cmder.flags)
	config.AddEventFlags(cmd, &cmder.flags)
	config.AddStringFlag(cmd, config.Registry, config.FlagListen, &cmder.listen)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command, cfg *config.Config) error {
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

	mcpServer, err := mcp.NewServer(mcp.Config{
		Analyzer: analyzer,
		Tokens:   tokens,
		APIURL:   cfg.API.URL,
		Events:   events.Pool,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{ListenAddr: cfg.Server.Listen}, mcpServer.Handler(), c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-cmd.Context().Done():
		c.logger.Info("context done, shutting down")
	}

	return apiServer.Shutdown()
}
