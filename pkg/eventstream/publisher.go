// Package eventstream defines the analysis event payload and the publisher
// contract implemented by the nop and kafka backends.
package eventstream

import "context"

// Publisher publishes analysis events to an event stream backend.
type Publisher interface {
	PublishAnalysis(ctx context.Context, event *AnalysisEvent) error
	Close() error
}
