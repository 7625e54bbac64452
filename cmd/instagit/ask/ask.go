// Package askcmder provides the ask command for one-shot repository questions.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/instagit/cmd/instagit/wiring"
	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/cliui"
	"github.com/papercomputeco/instagit/pkg/config"
	"github.com/papercomputeco/instagit/pkg/git"
	"github.com/papercomputeco/instagit/pkg/progress"
)

type askCommander struct {
	flags config.FlagValues
	ref   string
	fast  bool
	raw   bool

	logger *slog.Logger
}

const askLongDesc string = `Ask a question about a Git repository.

The repository may be a GitHub URL, owner/repo shorthand, a GitLab or
Bitbucket URL, or any public Git URL. A local checkout path such as "."
asks about the checkout's origin remote. The answer streams in the background
while a progress line is shown on stderr, then is printed to stdout as
rendered markdown on a terminal and as plain text otherwise.

Transient failures (gateway errors, dropped connections, cold starts) are
retried with exponential backoff.

Examples:
  instagit ask owner/repo "Explain the architecture and main components"
  instagit ask https://github.com/owner/repo "Where is auth handled?" --ref v2.0.0
  instagit ask owner/repo "Document the public API" --raw > API.md
  instagit ask . "What does this project do?"`

const askShortDesc string = "Ask a question about a repository"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <repo> <prompt>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wiring.Settings(cmd, config.AnalysisFlags)
			if err != nil {
				return err
			}
			cmder.logger = wiring.NewLogger(cmd)

			cmd.SilenceUsage = true
			return cmder.run(cmd, cfg, args[0], strings.Join(args[1:], " "))
		},
	}

	config.AddAnalysisFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.ref, "ref", "", "Branch, commit SHA, or tag to analyze (default: repository's default branch)")
	cmd.Flags().BoolVar(&cmder.fast, "fast", true, "Use fast mode for quicker responses")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the answer as plain markdown even on a terminal")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, cfg *config.Config, repo, prompt string) error {
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

	if git.IsLocalPath(repo) {
		remote, err := git.RemoteURL(ctx, repo, "")
		if err != nil {
			return fmt.Errorf("resolving repository for %s: %w", repo, err)
		}
		c.logger.Debug("resolved local checkout", "path", repo, "remote", remote)
		repo = remote
	}

	token := tokens.TokenOrRegister(ctx)
	if token == "" {
		c.logger.Warn("no API token available, continuing unauthenticated")
	}

	fast := c.fast
	req := analysis.Request{
		Repo:   repo,
		Prompt: prompt,
		Ref:    c.ref,
		Token:  token,
		Fast:   &fast,
	}

	line := cliui.NewProgressLine(cliui.DetectTerminal(cmd.ErrOrStderr()))
	tracker := progress.NewTracker()

	result, err := c.analyze(ctx, analyzer, req, line, tracker)
	if err != nil && analysis.StatusCode(err) == 401 {
		c.logger.Info("token rejected, registering a new one")
		if clearErr := tokens.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear stored token", "error", clearErr)
		}

		newToken, regErr := tokens.Register(ctx)
		if regErr != nil {
			line.Clear()
			return fmt.Errorf("authentication failed, set INSTAGIT_API_KEY or run 'instagit auth': %w", regErr)
		}
		req.Token = newToken
		tracker.Resume()
		tracker.SetStatus(progress.StatusConnecting)
		result, err = c.analyze(ctx, analyzer, req, line, tracker)
	}
	line.Clear()

	if err != nil {
		if analysis.IsConnectionFailure(err) {
			return fmt.Errorf("could not connect to %s: %w", cfg.API.URL, err)
		}
		return err
	}

	return c.print(cmd.OutOrStdout(), result)
}

func (c *askCommander) analyze(ctx context.Context, analyzer *analysis.Client, req analysis.Request, line *cliui.ProgressLine, tracker *progress.Tracker) (*analysis.Result, error) {
	return analyzer.Analyze(ctx, req, analysis.WithProgress(line.Sink()), analysis.WithTracker(tracker))
}

func (c *askCommander) print(w io.Writer, result *analysis.Result) error {
	term := cliui.DetectTerminal(w)
	if c.raw || !term.IsTTY {
		_, err := fmt.Fprintln(w, analysis.TextWithFooter(result))
		return err
	}

	rendered, err := cliui.RenderMarkdown(result.Text, term.Width)
	if err != nil {
		c.logger.Debug("markdown rendering failed, printing plain text", "error", err)
	}
	fmt.Fprint(w, rendered)

	if footer := analysis.Footer(result); footer != "" {
		fmt.Fprintf(w, "\n%s\n", cliui.DimStyle.Render(footer))
	}
	return nil
}
