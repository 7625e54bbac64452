// Package mcp provides the MCP (Model Context Protocol) server exposing the
// ask_repo tool.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/instagit/pkg/analysis"
	"github.com/papercomputeco/instagit/pkg/eventstream"
	"github.com/papercomputeco/instagit/pkg/utils"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "instagit"

// Analyzer runs one analysis call. *analysis.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request, opts ...analysis.CallOption) (*analysis.Result, error)
}

// TokenSource resolves and refreshes the bearer token. *token.Provider
// satisfies it.
type TokenSource interface {
	Token() string
	Register(ctx context.Context) (string, error)
	Clear() error
}

// EventSink receives finished analyses. *worker.Pool satisfies it.
type EventSink interface {
	Enqueue(event *eventstream.AnalysisEvent) bool
}

type Config struct {
	// Analyzer answers ask_repo calls.
	Analyzer Analyzer

	// Tokens resolves the bearer token, registering anonymous ones as needed.
	Tokens TokenSource

	// APIURL is shown to users when the service cannot be reached.
	APIURL string

	// Events optionally receives an event for every finished call.
	Events EventSink

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask_repo tool.
func NewServer(c Config) (*Server, error) {
	if c.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if c.Tokens == nil {
		return nil, errors.New("token source is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if c.APIURL == "" {
		c.APIURL = analysis.DefaultBaseURL
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askRepoToolName,
		Description: askRepoDescription,
	}, s.handleAskRepo)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves a single session over t until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

// RunStdio serves over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
