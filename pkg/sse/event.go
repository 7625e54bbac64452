// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// parser for consuming streamed analysis responses. The Parser is push-based:
// callers feed it raw chunks as the transport delivers them and receive every
// event completed by that chunk. It never performs I/O itself.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneSentinel is the literal data payload that marks normal termination of
// an OpenAI-style stream. It is not JSON.
const DoneSentinel = "[DONE]"

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// IsDone reports whether the event carries the [DONE] sentinel payload.
func (e Event) IsDone() bool {
	return e.Data == DoneSentinel
}
