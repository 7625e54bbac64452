package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/instagit/pkg/analysis"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAnalysisCompleted is emitted after an analysis returned a result.
	EventTypeAnalysisCompleted = "instagit.analysis.completed"

	// EventTypeAnalysisFailed is emitted after an analysis ended in an error.
	EventTypeAnalysisFailed = "instagit.analysis.failed"
)

// AnalysisEvent is a transport-neutral event payload for a finished analysis.
type AnalysisEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	Source        EventSource    `json:"source"`
	Meta          AnalysisMeta   `json:"meta"`
	Usage         *AnalysisUsage `json:"usage,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// EventSource identifies the repository that was analysed.
type EventSource struct {
	Repo string `json:"repo"`
	Ref  string `json:"ref,omitempty"`
}

// AnalysisMeta captures request lifecycle metadata for the event.
type AnalysisMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	HTTPStatus  int       `json:"http_status,omitempty"`
}

// AnalysisUsage is the token accounting reported by the service.
type AnalysisUsage struct {
	InputTokens     int    `json:"input_tokens"`
	OutputTokens    int    `json:"output_tokens"`
	TotalTokens     int    `json:"total_tokens"`
	Tier            string `json:"tier"`
	TokensRemaining int    `json:"tokens_remaining"`
}

// NewAnalysisEvent builds the event for one finished analysis. A nil err
// yields a completed event carrying the usage from result; otherwise a
// failed event carrying the error text and HTTP status, if any.
func NewAnalysisEvent(req analysis.Request, startedAt time.Time, result *analysis.Result, err error) *AnalysisEvent {
	now := time.Now().UTC()

	event := &AnalysisEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAnalysisCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		Source: EventSource{
			Repo: req.Repo,
			Ref:  req.Ref,
		},
		Meta: AnalysisMeta{
			StartedAt:   startedAt.UTC(),
			CompletedAt: now,
			DurationMs:  now.Sub(startedAt).Milliseconds(),
		},
	}

	if err != nil {
		event.EventType = EventTypeAnalysisFailed
		event.Error = err.Error()
		event.Meta.HTTPStatus = analysis.StatusCode(err)
		return event
	}

	if result != nil {
		event.Usage = &AnalysisUsage{
			InputTokens:     result.InputTokens,
			OutputTokens:    result.OutputTokens,
			TotalTokens:     result.TotalTokens,
			Tier:            result.Tier,
			TokensRemaining: result.TokensRemaining,
		}
	}

	return event
}
