// Package api provides the HTTP server that exposes the MCP endpoint over
// streamable HTTP.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8787")
	ListenAddr string
}
