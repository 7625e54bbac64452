// Package instagitcmder provides the instagit root command.
package instagitcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/instagit/cmd/instagit/ask"
	authcmder "github.com/papercomputeco/instagit/cmd/instagit/auth"
	configcmder "github.com/papercomputeco/instagit/cmd/instagit/config"
	mcpcmder "github.com/papercomputeco/instagit/cmd/instagit/mcp"
	servecmder "github.com/papercomputeco/instagit/cmd/instagit/serve"
	"github.com/papercomputeco/instagit/cmd/instagit/wiring"
	versioncmder "github.com/papercomputeco/instagit/cmd/version"
	"github.com/papercomputeco/instagit/pkg/config"
)

const instagitLongDesc string = `Instagit answers questions about any Git repository using AI.

Ask from the terminal, or expose the ask_repo tool to MCP clients:
  instagit ask owner/repo "How is auth implemented?"
  instagit mcp          Serve MCP over stdio
  instagit serve        Serve MCP over streamable HTTP

Without INSTAGIT_API_KEY an anonymous token is registered for this machine
and cached in the .instagit/ directory.`

const instagitShortDesc string = "Instagit - AI answers about any Git repository"

func NewInstagitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instagit",
		Short: instagitShortDesc,
		Long:  instagitLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString(wiring.FlagEnvFile)
			return config.LoadEnvFile(envFile)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP(wiring.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(wiring.FlagConfigDir, "", "Override path to .instagit/ config directory")
	cmd.PersistentFlags().String(wiring.FlagEnvFile, "", "Load environment variables from a dotenv file")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
