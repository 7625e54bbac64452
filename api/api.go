package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// MCPPath is the route serving the streamable HTTP MCP transport.
const MCPPath = "/mcp"

// Server is the HTTP front door for the MCP server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. mcpHandler serves every method on
// MCPPath.
func NewServer(config Config, mcpHandler http.Handler, logger *slog.Logger) (*Server, error) {
	if mcpHandler == nil {
		return nil, errors.New("mcp handler is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.All(MCPPath, adaptor.HTTPHandler(mcpHandler))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
