package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/instagit/pkg/fingerprint"
)

const (
	// EnvVar holds an explicit API key. It takes precedence over any cached
	// token.
	EnvVar = "INSTAGIT_API_KEY"

	// RegisterPath is the anonymous registration endpoint.
	RegisterPath = "/v1/auth/anonymous"

	registerTimeout = 30 * time.Second
)

// Source names where a token came from.
type Source string

const (
	SourceNone  Source = "none"
	SourceEnv   Source = "env"
	SourceStore Source = "store"
)

var (
	// ErrRateLimited is returned when the service refuses to register
	// another anonymous token for this address.
	ErrRateLimited = errors.New("anonymous registration limit reached")

	// ErrNoToken is returned when registration succeeded without a token.
	ErrNoToken = errors.New("registration response did not include a token")
)

// Config configures a Provider.
type Config struct {
	// APIURL is the service root used for registration.
	APIURL string

	Store *Store

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	// Fingerprint defaults to fingerprint.Machine.
	Fingerprint func() (string, error)

	// Getenv defaults to os.Getenv.
	Getenv func(string) string

	Logger *slog.Logger
}

// Provider resolves and registers tokens.
type Provider struct {
	apiURL      string
	store       *Store
	httpClient  *http.Client
	fingerprint func() (string, error)
	getenv      func(string) string
	logger      *slog.Logger
}

// NewProvider returns a Provider for config.
func NewProvider(config Config) (*Provider, error) {
	if config.Store == nil {
		return nil, errors.New("token store is required")
	}
	if config.APIURL == "" {
		return nil, errors.New("api url is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}

	p := &Provider{
		apiURL:      strings.TrimRight(config.APIURL, "/"),
		store:       config.Store,
		httpClient:  config.HTTPClient,
		fingerprint: config.Fingerprint,
		getenv:      config.Getenv,
		logger:      config.Logger,
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: registerTimeout}
	}
	if p.fingerprint == nil {
		p.fingerprint = fingerprint.Machine
	}
	if p.getenv == nil {
		p.getenv = os.Getenv
	}

	return p, nil
}

// Token returns the API key from the environment, else the cached token,
// else "".
func (p *Provider) Token() string {
	token, _ := p.Resolve()
	return token
}

// Resolve is Token plus where the token came from. An unreadable cache is
// logged and treated as empty.
func (p *Provider) Resolve() (string, Source) {
	if key := p.getenv(EnvVar); key != "" {
		return key, SourceEnv
	}

	stored, err := p.store.Load()
	if err != nil {
		p.logger.Warn("ignoring unreadable token cache", "path", p.store.Path(), "error", err)
		return "", SourceNone
	}
	if stored != "" {
		return stored, SourceStore
	}

	return "", SourceNone
}

// Save caches an explicitly provided API key.
func (p *Provider) Save(token string) error {
	return p.store.Save(token)
}

// StorePath is the token cache location.
func (p *Provider) StorePath() string {
	return p.store.Path()
}

// Clear drops the cached token.
func (p *Provider) Clear() error {
	return p.store.Clear()
}

// Register obtains a new anonymous token for this machine and caches it.
func (p *Provider) Register(ctx context.Context) (string, error) {
	fp, err := p.fingerprint()
	if err != nil {
		return "", fmt.Errorf("computing fingerprint: %w", err)
	}

	body, err := json.Marshal(map[string]string{"fingerprint": fp})
	if err != nil {
		return "", fmt.Errorf("encoding registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+RegisterPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("registering anonymous token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("registering anonymous token: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding registration response: %w", err)
	}
	if out.Token == "" {
		return "", ErrNoToken
	}

	if err := p.store.Save(out.Token); err != nil {
		return "", err
	}

	p.logger.Debug("registered anonymous token", "path", p.store.Path())
	return out.Token, nil
}

// TokenOrRegister returns the resolved token, registering an anonymous one
// when none exists. Registration failures are logged and yield "".
func (p *Provider) TokenOrRegister(ctx context.Context) string {
	if token := p.Token(); token != "" {
		return token
	}

	token, err := p.Register(ctx)
	if err != nil {
		p.logger.Warn("anonymous registration failed", "error", err)
		return ""
	}
	return token
}
