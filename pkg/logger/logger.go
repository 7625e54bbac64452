// Package logger builds the *slog.Logger used across instagit.
//
// Logs go to stderr by default: stdout carries the MCP stdio transport and
// the result of one-shot commands.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New returns a logger configured by opts. Without options it writes
// Info-level text records to stderr.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stderr
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	switch {
	case c.pretty:
		return slog.New(log.NewWithOptions(w, log.Options{
			Level:           log.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		}))
	case c.json:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		}))
	}
}

// Nop returns a logger that drops every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
