package cliui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/instagit/pkg/progress"
)

// ProgressLine redraws a single status line in place on a terminal.
type ProgressLine struct {
	mu     sync.Mutex
	out    *termenv.Output
	width  int
	drawn  bool
	closed bool
}

// NewProgressLine returns a ProgressLine drawing to t.Out, or nil when t is
// not a terminal.
func NewProgressLine(t Terminal) *ProgressLine {
	if !t.IsTTY {
		return nil
	}

	return &ProgressLine{
		out:   termenv.NewOutput(t.Out),
		width: t.Width,
	}
}

// Sink returns the progress sink for an analysis call. A nil ProgressLine
// yields a nil sink, which disables the heartbeat.
func (p *ProgressLine) Sink() progress.Sink {
	if p == nil {
		return nil
	}
	return p.Draw
}

// Draw replaces the current line with message.
func (p *ProgressLine) Draw(_ context.Context, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	line := ansi.Truncate(p.style(message), max(p.width-1, 1), "…")

	if !p.drawn {
		p.out.HideCursor()
		p.drawn = true
	}
	_, err := fmt.Fprint(p.out, "\r")
	if err != nil {
		return err
	}
	p.out.ClearLine()
	_, err = fmt.Fprint(p.out, line)
	return err
}

// Clear erases the line and restores the cursor. Later draws are ignored.
func (p *ProgressLine) Clear() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if !p.drawn {
		return
	}
	_, _ = fmt.Fprint(p.out, "\r")
	p.out.ClearLine()
	p.out.ShowCursor()
}

// style colors the animation frame and dims the rest of the line.
func (p *ProgressLine) style(message string) string {
	frame, rest, found := strings.Cut(message, " · ")
	frame = p.out.String(frame).Foreground(p.out.Color("196")).String()
	if !found {
		return frame
	}
	return frame + p.out.String(" · "+rest).Foreground(p.out.Color("245")).String()
}
