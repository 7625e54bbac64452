package nop

import (
	"context"

	"github.com/papercomputeco/instagit/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAnalysis validates input and otherwise does nothing.
func (p *Publisher) PublishAnalysis(_ context.Context, event *eventstream.AnalysisEvent) error {
	if event == nil {
		return eventstream.ErrNilAnalysisEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
