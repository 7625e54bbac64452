package sse

import (
	"bytes"
	"strings"
)

// Parser incrementally parses an SSE byte stream into events.
//
// The transport may split the stream anywhere, including inside a line or
// inside a multi-byte UTF-8 sequence. Parser keeps the incomplete tail of
// the input buffered as raw bytes and only decodes a line once its
// terminating '\n' has arrived, so the emitted events do not depend on
// where chunk boundaries fall.
type Parser struct {
	// buf holds bytes received after the last complete line.
	buf []byte

	// current accumulates fields for the event being built.
	current Event
	hasData bool
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends chunk to the internal buffer and returns every event that
// was completed by it, in stream order. Feed never blocks.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}

		line := string(bytes.TrimSuffix(p.buf[:idx], []byte{'\r'}))
		p.buf = p.buf[idx+1:]

		if ev, ok := p.processLine(line); ok {
			events = append(events, ev)
		}
	}

	// Release the consumed prefix once the buffer drains so long streams do
	// not pin the first chunk's backing array.
	if len(p.buf) == 0 {
		p.buf = nil
	}

	return events
}

// Flush is called once the source is exhausted. A trailing line without a
// newline is processed, and an in-progress event that was never terminated
// by a blank line is yielded.
func (p *Parser) Flush() []Event {
	var events []Event

	if len(p.buf) > 0 {
		line := string(bytes.TrimSuffix(p.buf, []byte{'\r'}))
		p.buf = nil
		if ev, ok := p.processLine(line); ok {
			events = append(events, ev)
		}
	}

	if p.hasData {
		events = append(events, p.current)
		p.reset()
	}

	return events
}

// Buffered returns the number of bytes held waiting for a line terminator.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// processLine handles one complete line. It returns an event when the line
// is the blank line that terminates a non-empty event.
func (p *Parser) processLine(line string) (Event, bool) {
	// A blank line signals the end of the current event.
	if line == "" {
		if !p.hasData {
			// Blank line with no accumulated fields, skip it (e.g. leading
			// blank lines or keep-alive newlines).
			return Event{}, false
		}
		ev := p.current
		p.reset()
		return ev, true
	}

	// Lines starting with ':' are comments.
	if strings.HasPrefix(line, ":") {
		return Event{}, false
	}

	p.parseLine(line)
	return Event{}, false
}

// parseLine processes a single non-empty, non-comment SSE line and
// accumulates the field into the current event.
//
// Per the SSE spec, a line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func (p *Parser) parseLine(line string) {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if p.hasData && p.current.Data != "" {
			p.current.Data += "\n"
		}
		p.current.Data += value
		p.hasData = true
	case "event":
		p.current.Type = value
		p.hasData = true
	case "id":
		p.current.ID = value
		p.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

// reset clears the accumulated event state for the next event.
func (p *Parser) reset() {
	p.current = Event{}
	p.hasData = false
}
