package analysis

import (
	"strings"

	"github.com/papercomputeco/instagit/pkg/progress"
)

// DefaultTier is reported when the server does not name a tier.
const DefaultTier = "free"

// charsPerToken is the rough ratio used to estimate output tokens until the
// server reports a real count.
const charsPerToken = 4

// Accumulator collects the state of a single attempt: the output text and
// the last usage snapshot. It also forwards status and token updates to the
// call's long-lived tracker. An Accumulator is never reused across
// attempts.
type Accumulator struct {
	text    strings.Builder
	usage   Usage
	tracker *progress.Tracker
}

// NewAccumulator returns an empty accumulator reporting to tracker. A nil
// tracker gets a private one.
func NewAccumulator(tracker *progress.Tracker) *Accumulator {
	if tracker == nil {
		tracker = progress.NewTracker()
	}
	return &Accumulator{tracker: tracker}
}

// Apply updates the accumulated state with one event.
func (a *Accumulator) Apply(ev Event) {
	switch e := ev.(type) {
	case ReasoningDelta:
		if e.Text != "" {
			a.tracker.SetStatus(e.Text)
		}
		if e.Tokens != nil {
			a.tracker.SetTokens(e.Tokens.Input, e.Tokens.Output)
		}
	case OutputDelta:
		a.text.WriteString(e.Text)
		a.tracker.EstimateOutputTokens(a.text.Len() / charsPerToken)
		a.tracker.SetStatus(progress.StatusWriting)
	case Completed:
		a.usage = e.Usage
	case Sentinel, Unrecognized:
	}
}

// Reset discards all accumulated text and usage.
func (a *Accumulator) Reset() {
	a.text.Reset()
	a.usage = Usage{}
}

// Text returns the output text collected so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Result builds the final result from the collected text and the last
// usage snapshot. Absent usage fields default to zero, "free" and nil.
func (a *Accumulator) Result() *Result {
	tier := DefaultTier
	if a.usage.Tier != nil {
		tier = *a.usage.Tier
	}

	return &Result{
		Text:            a.text.String(),
		InputTokens:     a.usage.InputTokens,
		OutputTokens:    a.usage.OutputTokens,
		TotalTokens:     a.usage.TotalTokens,
		Tier:            tier,
		TokensRemaining: a.usage.TokensRemaining,
		UpgradeHint:     a.usage.UpgradeHint,
	}
}
