// Package authcmder provides the auth command for managing the Instagit API
// token.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/instagit/cmd/instagit/wiring"
	"github.com/papercomputeco/instagit/pkg/cliui"
	"github.com/papercomputeco/instagit/pkg/config"
	"github.com/papercomputeco/instagit/pkg/token"
)

const authLongDesc string = `Manage the Instagit API token.

Tokens are resolved in this order:
  1. INSTAGIT_API_KEY environment variable
  2. token.json in the .instagit/ directory

Without flags, auth stores an API key from your Instagit dashboard in
token.json. When no token is available, an anonymous token is registered
for this machine on first use (limited to 3 per IP address).

Examples:
  instagit auth                  Prompt for an API key
  echo $KEY | instagit auth      Pipe an API key from stdin
  instagit auth --status         Show where the current token comes from
  instagit auth --register       Register an anonymous token now
  instagit auth --clear          Remove the stored token`

const authShortDesc string = "Manage the Instagit API token"

type authCommander struct {
	status   bool
	clear    bool
	register bool
	apiURL   string

	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func NewAuthCmd() *cobra.Command {
	cmder := &authCommander{}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := wiring.Settings(cmd, []string{config.FlagAPIURL})
			if err != nil {
				return err
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.logger = wiring.NewLogger(cmd)

			provider, err := wiring.NewTokenProvider(cmd, cfg, cmder.logger)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			switch {
			case cmder.clear:
				return cmder.runClear(provider)
			case cmder.register:
				return cmder.runRegister(cmd, provider)
			case cmder.status:
				return cmder.runStatus(provider)
			default:
				return cmder.runStore(cmd, provider)
			}
		},
	}

	cmd.Flags().BoolVar(&cmder.status, "status", false, "Show the current token source")
	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Remove the stored token")
	cmd.Flags().BoolVar(&cmder.register, "register", false, "Register a new anonymous token")
	cmd.MarkFlagsMutuallyExclusive("status", "clear", "register")
	config.AddStringFlag(cmd, config.Registry, config.FlagAPIURL, &cmder.apiURL)

	return cmd
}

func (c *authCommander) runStatus(provider *token.Provider) error {
	value, source := provider.Resolve()

	switch source {
	case token.SourceEnv:
		fmt.Fprintf(c.out, "\n  %s Using %s from %s\n\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(mask(value)),
			cliui.NameStyle.Render(token.EnvVar),
		)
	case token.SourceStore:
		fmt.Fprintf(c.out, "\n  %s Using stored token %s\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(mask(value)),
		)
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render(provider.StorePath()))
	default:
		fmt.Fprintf(c.out, "\n  %s No token configured.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(c.out, "  An anonymous token is registered on first use, or run 'instagit auth' to store an API key.\n\n")
	}

	return nil
}

func (c *authCommander) runClear(provider *token.Provider) error {
	if err := provider.Clear(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s Removed stored token.\n\n", cliui.SuccessMark)
	return nil
}

func (c *authCommander) runRegister(cmd *cobra.Command, provider *token.Provider) error {
	var registered string
	err := cliui.Step(cmd.ErrOrStderr(), "Registering anonymous token", func() error {
		var err error
		registered, err = provider.Register(cmd.Context())
		return err
	})
	if errors.Is(err, token.ErrRateLimited) {
		return errors.New("anonymous token limit reached for this IP address\n\n" +
			"Sign up at https://instagit.ai/signup and run 'instagit auth' with your API key")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Stored anonymous token %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(mask(registered)),
	)
	return nil
}

func (c *authCommander) runStore(cmd *cobra.Command, provider *token.Provider) error {
	key, err := c.readAPIKey(cmd)
	if err != nil {
		return err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := provider.Save(key); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Stored API key %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(mask(key)),
	)
	if _, source := provider.Resolve(); source == token.SourceEnv {
		fmt.Fprintf(c.out, "  %s %s is set and takes precedence over the stored key.\n",
			cliui.WarnStyle.Render("!"),
			token.EnvVar,
		)
	}
	fmt.Fprintln(c.out)

	return nil
}

// readAPIKey reads an API key from stdin. If stdin is a terminal it prompts
// with hidden input; otherwise it reads the first line.
func (c *authCommander) readAPIKey(cmd *cobra.Command) (string, error) {
	if f, ok := c.in.(*os.File); ok {
		fd := int(f.Fd()) //nolint:gosec // file descriptors fit in int
		if term.IsTerminal(fd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Enter Instagit API key (%s): ", token.EnvVar)

			keyBytes, err := term.ReadPassword(fd)
			fmt.Fprintln(cmd.ErrOrStderr()) // newline after hidden input
			if err != nil {
				return "", fmt.Errorf("reading API key: %w", err)
			}
			return string(keyBytes), nil
		}
	}

	scanner := bufio.NewScanner(c.in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}

// mask keeps the first and last four characters of a token.
func mask(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
