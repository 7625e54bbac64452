// Package progress tracks the progress of one top-level analysis call and
// reports it periodically as a single formatted status line.
//
// A Tracker outlives individual attempts: when the streaming client retries,
// the attempt-scoped result state is discarded but elapsed time, the
// animation phase and the last known token counts carry on.
package progress

import (
	"strings"
	"sync"
	"time"
)

const (
	// StatusConnecting is the initial status of a new Tracker.
	StatusConnecting = "Connecting..."

	// StatusWriting is shown while output text is streaming.
	StatusWriting = "Writing response..."

	separator = " · "

	// minTokenStep is the smallest increment of the displayed token count.
	minTokenStep = 50

	// tokenSmoothing divides the remaining gap between the displayed and
	// actual token count on every frame.
	tokenSmoothing = 20
)

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	Start           time.Time
	FrameIndex      int
	InputTokens     int
	OutputTokens    int
	DisplayedTokens int
	LastStatus      string
	Done            bool
}

// Tracker is the mutable progress state of one top-level call. It is
// written by the stream loop and read by the heartbeat goroutine; every
// access goes through the mutex.
type Tracker struct {
	mu sync.Mutex

	start           time.Time
	frameIndex      int
	inputTokens     int
	outputTokens    int
	displayedTokens int
	lastStatus      string
	done            bool

	now func() time.Time
}

// NewTracker returns a tracker started now with the "Connecting..." status.
func NewTracker() *Tracker {
	return newTrackerWithClock(time.Now)
}

func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{
		start:      now(),
		lastStatus: StatusConnecting,
		now:        now,
	}
}

// SetStatus replaces the status text.
func (t *Tracker) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastStatus = status
}

// SetTokens overwrites the token counters that are provided. A nil pointer
// leaves that counter unchanged.
func (t *Tracker) SetTokens(input, output *int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if input != nil {
		t.inputTokens = *input
	}
	if output != nil {
		t.outputTokens = *output
	}
}

// EstimateOutputTokens sets the output counter to estimate only while no
// real count has been reported yet.
func (t *Tracker) EstimateOutputTokens(estimate int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outputTokens == 0 {
		t.outputTokens = estimate
	}
}

// OutputTokens returns the last known output token count.
func (t *Tracker) OutputTokens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputTokens
}

// MarkDone stops further heartbeat reports.
func (t *Tracker) MarkDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

// Resume clears the done flag so a follow-up call on the same question
// keeps the elapsed time, animation phase and token counts.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = false
}

// Done reports whether the tracker was marked done.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.start)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Start:           t.start,
		FrameIndex:      t.frameIndex,
		InputTokens:     t.inputTokens,
		OutputTokens:    t.outputTokens,
		DisplayedTokens: t.displayedTokens,
		LastStatus:      t.lastStatus,
		Done:            t.done,
	}
}

// Format renders the status line "frame · elapsed · tokens · status" and
// advances the animation: the frame index moves on by one and the displayed
// token count steps toward the actual count. A non-empty status replaces
// the last status first.
func (t *Tracker) Format(status string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status != "" {
		t.lastStatus = status
	}

	frame := Frames[t.frameIndex%len(Frames)]
	t.frameIndex++

	parts := []string{frame, FormatDuration(t.now().Sub(t.start))}

	if displayed := t.animateTokens(); displayed > 0 {
		parts = append(parts, FormatTokens(displayed)+" tokens")
	}

	if t.lastStatus != "" {
		parts = append(parts, t.lastStatus)
	}

	return strings.Join(parts, separator)
}

// animateTokens moves the displayed count toward input+output tokens.
// Callers hold t.mu.
func (t *Tracker) animateTokens() int {
	actual := t.inputTokens + t.outputTokens
	if t.displayedTokens < actual {
		step := max(minTokenStep, (actual-t.displayedTokens)/tokenSmoothing)
		t.displayedTokens = min(t.displayedTokens+step, actual)
	}
	return t.displayedTokens
}
