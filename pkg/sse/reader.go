package sse

import (
	"errors"
	"io"
)

const readBufferSize = 32 * 1024

// TeeReader reads SSE events from a source io.Reader while simultaneously
// writing all raw bytes verbatim to a destination io.Writer.
// This effectively enables "tee" shaped reading where TeeReader.Next
// returns the Event for consumption while writing to a separate destination.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │ TeeReader.Next() │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// It is the pull-based view over Parser: raw chunks are read from src,
// copied to dest, and pushed through a Parser. The analysis client reads
// response bodies through it.
type TeeReader struct {
	src  io.Reader
	dest io.Writer

	parser  *Parser
	pending []Event
	buf     []byte
	eof     bool
}

// NewTeeReader returns a Reader that parses SSE events from the src io.Reader
// and writes all raw bytes through to dest. A nil dest discards the bytes.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	if dest == nil {
		dest = io.Discard
	}

	return &TeeReader{
		src:    src,
		dest:   dest,
		parser: NewParser(),
		buf:    make([]byte, readBufferSize),
	}
}

// Next returns the next parsed SSE event. It blocks until a complete event
// is available (terminated by a blank line in the stream).
// Next returns nil, nil when the source is exhausted.
func (r *TeeReader) Next() (*Event, error) {
	for len(r.pending) == 0 {
		if r.eof {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
				return nil, werr
			}
			r.pending = append(r.pending, r.parser.Feed(r.buf[:n])...)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			r.eof = true
			r.pending = append(r.pending, r.parser.Flush()...)
		}
	}

	ev := r.pending[0]
	r.pending = r.pending[1:]
	return &ev, nil
}
