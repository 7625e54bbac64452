// Package analysis is the streaming client for the repository analysis
// service. A call posts one question, consumes the SSE response as typed
// events and retries transient failures with exponential backoff. Each
// attempt starts from empty result state; only the progress tracker spans
// attempts.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/instagit/pkg/progress"
	"github.com/papercomputeco/instagit/pkg/retry"
	"github.com/papercomputeco/instagit/pkg/sse"
)

const (
	// DefaultBaseURL is the hosted analysis service.
	DefaultBaseURL = "https://instagit--instagit-api-api.modal.run"

	// ResponsesPath is the streaming analysis endpoint.
	ResponsesPath = "/v1/responses"

	// maxErrorBody bounds how much of a failed response body is kept.
	maxErrorBody = 64 * 1024
)

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, without a trailing path.
	BaseURL string

	// Timeout bounds each attempt from request start to end of stream.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retries.
	MaxRetries int

	// BaseDelay is the backoff before the first retry; it doubles after
	// every retry.
	BaseDelay time.Duration

	// ProgressInterval is the heartbeat period when a progress sink is set.
	ProgressInterval time.Duration

	// HTTPClient is used for requests when set. Redirect following is
	// always disabled on the client actually used.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          retry.DefaultTimeout,
		MaxRetries:       retry.DefaultMaxRetries,
		BaseDelay:        retry.DefaultBaseDelay,
		ProgressInterval: progress.DefaultInterval,
	}
}

// Client runs analysis calls. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates config and returns a Client. Zero durations and an
// empty BaseURL fall back to the defaults.
func NewClient(config Config) (*Client, error) {
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", config.MaxRetries)
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = defaults.BaseDelay
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = defaults.ProgressInterval
	}

	httpClient := &http.Client{}
	if config.HTTPClient != nil {
		clone := *config.HTTPClient
		httpClient = &clone
	}
	// A 303 from a cold-starting backend must reach the retry policy.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger,
	}, nil
}

// CallOption customizes a single Analyze call.
type CallOption func(*callOptions)

type callOptions struct {
	sink    progress.Sink
	tracker *progress.Tracker
}

// WithProgress reports the formatted progress line to sink every
// ProgressInterval while the call runs.
func WithProgress(sink progress.Sink) CallOption {
	return func(o *callOptions) {
		o.sink = sink
	}
}

// WithTracker makes the call report into tracker instead of a private one,
// so the caller can read token counts while and after the call runs.
func WithTracker(tracker *progress.Tracker) CallOption {
	return func(o *callOptions) {
		o.tracker = tracker
	}
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeTerminal
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// attemptOutcome is the classified result of one attempt.
type attemptOutcome struct {
	kind   outcomeKind
	result *Result
	err    error
}

func succeeded(r *Result) attemptOutcome { return attemptOutcome{kind: outcomeSuccess, result: r} }
func retryable(err error) attemptOutcome { return attemptOutcome{kind: outcomeRetryable, err: err} }
func terminal(err error) attemptOutcome  { return attemptOutcome{kind: outcomeTerminal, err: err} }

// Analyze asks one question and returns the complete result. Transient
// failures are retried up to MaxRetries times; the returned error is one of
// the typed errors of this package, or the context error when ctx ends.
func (c *Client) Analyze(ctx context.Context, req Request, opts ...CallOption) (*Result, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	tracker := o.tracker
	if tracker == nil {
		tracker = progress.NewTracker()
	}

	stop := progress.StartHeartbeat(ctx, tracker, c.config.ProgressInterval, o.sink, c.dropProgress)
	defer func() {
		tracker.MarkDone()
		stop()
	}()

	body, err := req.marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	attempts := c.config.MaxRetries + 1
	var last error

	for attempt := range attempts {
		c.logger.Debug("analysis attempt",
			"state", "connecting",
			"attempt", attempt+1,
			"of", attempts,
			"model", req.Model(),
		)

		out := c.attempt(ctx, req, body, NewAccumulator(tracker))

		c.logger.Debug("analysis attempt finished",
			"attempt", attempt+1,
			"outcome", out.kind.String(),
		)

		switch out.kind {
		case outcomeSuccess:
			return out.result, nil
		case outcomeTerminal:
			return nil, out.err
		case outcomeRetryable:
			last = out.err
		}

		if attempt == attempts-1 {
			break
		}

		delay := retry.Delay(attempt, c.config.BaseDelay)
		tracker.SetStatus(fmt.Sprintf("Retrying (attempt %d/%d)...", attempt+2, attempts))
		c.logger.Warn("retrying analysis",
			"state", "retry_wait",
			"attempt", attempt+1,
			"delay", delay,
			"error", out.err,
		)

		if err := retry.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedRetriesError{Attempts: attempts, Last: last}
}

// attempt performs one request-through-end-of-stream cycle into acc.
func (c *Client) attempt(ctx context.Context, req Request, body []byte, acc *Accumulator) attemptOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.config.BaseURL+ResponsesPath, bytes.NewReader(body))
	if err != nil {
		return terminal(fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body is diagnostic only; a failed read leaves it empty.
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(errBody)}
		if httpErr.Retryable() {
			return retryable(httpErr)
		}
		return terminal(httpErr)
	}

	// An empty 200 is a cold start and is judged by its (empty) output below.
	if resp.Body == nil || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return terminal(ErrNoResponseBody)
	}

	c.logger.Debug("analysis stream open", "state", "streaming", "status", resp.StatusCode)

	if err := c.consume(resp.Body, acc); err != nil {
		return c.classifyTransport(ctx, err)
	}

	text := acc.Text()
	if retry.IsSecurityRejection(text) {
		return terminal(&SecurityRejectionError{Text: text})
	}
	if text == "" {
		return retryable(ErrEmptyResponse)
	}

	return succeeded(acc.Result())
}

// consume pulls frames from the response body through the decoder into
// acc until the sentinel, EOF or a read error.
func (c *Client) consume(body io.Reader, acc *Accumulator) error {
	reader := sse.NewTeeReader(body, nil)
	decoder := &Decoder{OnDiscard: c.dropEvent}

	for {
		frame, err := reader.Next()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}

		ev, ok := decoder.Decode(*frame)
		if !ok {
			continue
		}
		if _, done := ev.(Sentinel); done {
			return nil
		}
		acc.Apply(ev)
	}
}

// classifyTransport decides whether a connection-level failure is worth
// another attempt. The caller's own cancellation never is.
func (c *Client) classifyTransport(ctx context.Context, err error) attemptOutcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return terminal(ctxErr)
	}
	if retry.IsTransportError(err) {
		return retryable(&TransportError{Err: err})
	}
	return terminal(err)
}

func (c *Client) dropEvent(data string, err error) {
	c.logger.Debug("discarding malformed event", "data", data, "error", err)
}

func (c *Client) dropProgress(err error) {
	c.logger.Debug("progress report failed", "error", err)
}
