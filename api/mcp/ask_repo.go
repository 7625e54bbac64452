package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/eventstream"
	"github.com/papercomputeco/instagit/pkg/progress"
	"github.com/papercomputeco/instagit/pkg/utils"
)

const (
	askRepoToolName = "ask_repo"

	statusRegistering = "Registering anonymous token..."

	// maxErrorDetail bounds the response body quoted back to the client.
	maxErrorDetail = 500
)

var askRepoDescription = `Analyze any Git repository with AI. Point it at a repo and ask questions about the codebase. Use cases include:
- Understanding unfamiliar codebases: 'Explain the architecture and main components'
- Code review assistance: 'Review the authentication implementation for security issues'
- Documentation generation: 'Document the public API of this library'
- Dependency analysis: 'What external services does this app depend on?'
- Onboarding help: 'How would I add a new API endpoint following existing patterns?'
- Bug investigation: 'Where might null pointer exceptions occur in the data pipeline?'
- Migration planning: 'What would it take to upgrade from React 17 to 18?'`

const (
	registrationFailedText = "Unable to register anonymous token. " +
		"This may be because you've reached the limit of 3 tokens per IP address.\n\n" +
		"To continue using Instagit:\n" +
		"1. Sign up for a free account at https://instagit.ai/signup\n" +
		"2. Get an API key from your dashboard\n" +
		"3. Set INSTAGIT_API_KEY in your MCP configuration"

	reauthFailedText = "Authentication failed. Unable to register a new token.\n\n" +
		"Please set INSTAGIT_API_KEY in your MCP configuration, " +
		"or visit https://instagit.ai/signup to create an account."

	rateLimitedText = "Rate limit exceeded. Your free credits have been exhausted.\n%s\n" +
		"To continue using Instagit immediately:\n" +
		"- Upgrade to Pro ($20/mo) for 10x more credits and faster analysis\n" +
		"- Visit: https://instagit.ai/pricing"
)

// AskRepoInput represents the input arguments for the ask_repo tool.
type AskRepoInput struct {
	Repo   string  `json:"repo" jsonschema:"Repository to analyze. Accepts GitHub URLs (https://github.com/owner/repo), shorthand (owner/repo), GitLab/Bitbucket URLs, or any public Git URL"`
	Prompt string  `json:"prompt" jsonschema:"What to analyze or ask about the codebase"`
	Ref    *string `json:"ref,omitempty" jsonschema:"Branch, commit SHA, or tag to analyze (default: repository's default branch)"`
	Fast   *bool   `json:"fast,omitempty" jsonschema:"Use fast mode for quicker responses (default: true)"`
}

func (in AskRepoInput) request(token string) analysis.Request {
	fast := true
	if in.Fast != nil {
		fast = *in.Fast
	}

	var ref string
	if in.Ref != nil {
		ref = *in.Ref
	}

	return analysis.Request{
		Repo:   in.Repo,
		Prompt: in.Prompt,
		Ref:    ref,
		Token:  token,
		Fast:   &fast,
	}
}

// handleAskRepo answers one question about a repository. Service failures
// are reported as tool error results with user-facing guidance, never as
// protocol errors.
func (s *Server) handleAskRepo(ctx context.Context, req *mcp.CallToolRequest, input AskRepoInput) (*mcp.CallToolResult, any, error) {
	logger := s.config.Logger

	if strings.TrimSpace(input.Repo) == "" {
		return errorResult("repo is required"), nil, nil
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return errorResult("prompt is required"), nil, nil
	}

	progressToken := progressTokenFor(req)
	tracker := progress.NewTracker()
	sink := s.progressSink(req, progressToken, tracker)

	token := s.config.Tokens.Token()
	if token == "" {
		progress.Send(ctx, sink, tracker.Format(statusRegistering), s.dropProgress)

		var err error
		token, err = s.config.Tokens.Register(ctx)
		if err != nil {
			logger.Warn("anonymous registration failed", "error", err)
			return errorResult(registrationFailedText), nil, nil
		}
	}

	progress.Send(ctx, sink, tracker.Format(progress.StatusConnecting), s.dropProgress)

	areq := input.request(token)
	started := time.Now()

	logger.Debug("MCP ask_repo request",
		"repo", areq.Repo,
		"ref", areq.Ref,
		"fast", *areq.Fast,
	)

	result, err := s.config.Analyzer.Analyze(ctx, areq,
		analysis.WithProgress(sink),
		analysis.WithTracker(tracker),
	)

	if err != nil && analysis.StatusCode(err) == 401 {
		logger.Info("token rejected, registering a new one")

		if clearErr := s.config.Tokens.Clear(); clearErr != nil {
			logger.Warn("failed to clear stored token", "error", clearErr)
		}

		newToken, regErr := s.config.Tokens.Register(ctx)
		if regErr != nil {
			logger.Warn("re-registration failed", "error", regErr)
			s.publish(areq, started, nil, err)
			return errorResult(reauthFailedText), nil, nil
		}

		// Same question, same progress line: keep elapsed time and phase.
		tracker.Resume()
		tracker.SetStatus(progress.StatusConnecting)

		areq.Token = newToken
		result, err = s.config.Analyzer.Analyze(ctx, areq,
			analysis.WithProgress(sink),
			analysis.WithTracker(tracker),
		)
		if err != nil {
			logger.Error("analysis failed after re-auth", "repo", areq.Repo, "error", err)
			s.publish(areq, started, nil, err)
			return errorResult("API error after re-auth: " + reauthDetail(err)), nil, nil
		}
	}

	s.publish(areq, started, result, err)

	if err != nil {
		logger.Error("analysis failed", "repo", areq.Repo, "error", err)
		return errorResult(s.describeError(ctx, err)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: analysis.TextWithFooter(result)},
		},
	}, nil, nil
}

// progressTokenFor returns the client's progress token, or a generated one
// when the client sent none.
func progressTokenFor(req *mcp.CallToolRequest) any {
	if req != nil && req.Params != nil {
		if token := req.Params.GetProgressToken(); token != nil {
			return token
		}
	}
	return askRepoToolName + "_" + uuid.NewString()
}

// progressSink forwards progress lines as notifications/progress. The
// progress value is the tracker's output token count.
func (s *Server) progressSink(req *mcp.CallToolRequest, token any, tracker *progress.Tracker) progress.Sink {
	if req == nil || req.Session == nil {
		return nil
	}

	session := req.Session
	return func(ctx context.Context, message string) error {
		return session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      float64(tracker.OutputTokens()),
			Message:       message,
		})
	}
}

func (s *Server) dropProgress(err error) {
	s.config.Logger.Debug("progress notification dropped", "error", err)
}

func (s *Server) publish(req analysis.Request, started time.Time, result *analysis.Result, err error) {
	if s.config.Events == nil {
		return
	}
	s.config.Events.Enqueue(eventstream.NewAnalysisEvent(req, started, result, err))
}

// describeError maps a failed analysis to the text shown to the user.
func (s *Server) describeError(ctx context.Context, err error) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "Request cancelled: " + ctxErr.Error()
	}

	if isConnectionFailure(err) {
		return fmt.Sprintf("Could not connect to Instagit API at %s. Make sure the API server is running.", s.config.APIURL)
	}

	var httpErr *analysis.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return rateLimitMessage(httpErr.Body)
		}
		if detail := errorDetail(httpErr.Body); detail != "" {
			return fmt.Sprintf("API error: %d %s", httpErr.StatusCode, detail)
		}
		return fmt.Sprintf("API error: %d", httpErr.StatusCode)
	}

	var rejection *analysis.SecurityRejectionError
	if errors.As(err, &rejection) {
		return rejection.Text
	}

	return "API error: " + err.Error()
}

func isConnectionFailure(err error) bool {
	if analysis.IsConnectionFailure(err) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func rateLimitMessage(body string) string {
	var data struct {
		RateLimitUntil string `json:"rate_limit_until"`
	}
	reset := ""
	if json.Unmarshal([]byte(body), &data) == nil && data.RateLimitUntil != "" {
		reset = "\nCredits will reset at: " + data.RateLimitUntil + "\n"
	}
	return fmt.Sprintf(rateLimitedText, reset)
}

// errorDetail extracts a message from an error body: the "detail" or
// "error" field of a JSON object, else the trimmed body itself.
func errorDetail(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	var data map[string]any
	if json.Unmarshal([]byte(body), &data) == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := data[key].(string); ok && v != "" {
				return utils.Truncate(v, maxErrorDetail)
			}
		}
	}
	return utils.Truncate(body, maxErrorDetail)
}

func reauthDetail(err error) string {
	if status := analysis.StatusCode(err); status != 0 {
		return fmt.Sprint(status)
	}
	return err.Error()
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
