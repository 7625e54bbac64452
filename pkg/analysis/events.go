package analysis

import (
	"encoding/json"

	"github.com/papercomputeco/instagit/pkg/sse"
)

// Event type discriminators sent in the "type" field of each data payload.
const (
	EventTypeReasoningDelta  = "response.reasoning.delta"
	EventTypeOutputTextDelta = "response.output_text.delta"
	EventTypeCompleted       = "response.completed"
)

// Event is one decoded stream event. The set of implementations is closed:
// ReasoningDelta, OutputDelta, Completed, Sentinel and Unrecognized.
type Event interface {
	isEvent()
}

// TokenCounts carries the live token counters reported alongside reasoning
// updates. Absent counters are nil.
type TokenCounts struct {
	Input  *int `json:"input,omitempty"`
	Output *int `json:"output,omitempty"`
}

// Usage is the final usage record of a completed response.
type Usage struct {
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	TotalTokens     int     `json:"total_tokens"`
	Tier            *string `json:"tier,omitempty"`
	TokensRemaining int     `json:"tokens_remaining"`
	UpgradeHint     *string `json:"upgrade_hint,omitempty"`
}

// ReasoningDelta is a status update from the analysis engine.
type ReasoningDelta struct {
	Text   string
	Tokens *TokenCounts
}

// OutputDelta is a fragment of the result text.
type OutputDelta struct {
	Text string
}

// Completed carries the usage snapshot of a finished response.
type Completed struct {
	Usage Usage
}

// Sentinel marks normal end of stream ("data: [DONE]").
type Sentinel struct{}

// Unrecognized is any payload with a type this client does not handle.
type Unrecognized struct {
	Type string
}

func (ReasoningDelta) isEvent() {}
func (OutputDelta) isEvent()    {}
func (Completed) isEvent()      {}
func (Sentinel) isEvent()       {}
func (Unrecognized) isEvent()   {}

// payload is the JSON schema of a data line.
type payload struct {
	Type     string       `json:"type"`
	Delta    string       `json:"delta"`
	Tokens   *TokenCounts `json:"tokens"`
	Response *struct {
		Usage *Usage `json:"usage"`
	} `json:"response"`
}

// Decoder turns SSE frames into typed events.
type Decoder struct {
	// OnDiscard, when set, is called for every data payload that could not
	// be decoded. Such payloads are dropped; they never end the stream.
	OnDiscard func(data string, err error)
}

// Decode maps an SSE frame to an Event. It returns false when the frame was
// discarded because its payload is not valid JSON.
func (d *Decoder) Decode(ev sse.Event) (Event, bool) {
	if ev.IsDone() {
		return Sentinel{}, true
	}

	var p payload
	if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
		if d.OnDiscard != nil {
			d.OnDiscard(ev.Data, err)
		}
		return nil, false
	}

	switch p.Type {
	case EventTypeReasoningDelta:
		return ReasoningDelta{Text: p.Delta, Tokens: p.Tokens}, true
	case EventTypeOutputTextDelta:
		return OutputDelta{Text: p.Delta}, true
	case EventTypeCompleted:
		var usage Usage
		if p.Response != nil && p.Response.Usage != nil {
			usage = *p.Response.Usage
		}
		return Completed{Usage: usage}, true
	default:
		return Unrecognized{Type: p.Type}, true
	}
}
