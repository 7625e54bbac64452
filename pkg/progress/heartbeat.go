package progress

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the period between heartbeat reports.
const DefaultInterval = 250 * time.Millisecond

// Sink receives formatted status lines. Sinks may fail; their failures
// never affect the call being reported on.
type Sink func(ctx context.Context, message string) error

// Discard reports an error that was swallowed instead of propagated.
type Discard func(err error)

// Send calls sink with message and routes any failure to onDrop instead of
// returning it. A panicking sink is treated as a failure. A nil sink is a
// no-op.
func Send(ctx context.Context, sink Sink, message string, onDrop Discard) {
	if sink == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil && onDrop != nil {
			onDrop(fmt.Errorf("progress sink panicked: %v", r))
		}
	}()

	if err := sink(ctx, message); err != nil && onDrop != nil {
		onDrop(err)
	}
}

// StartHeartbeat reports tracker.Format("") to sink every interval until
// the tracker is marked done or the returned stop function is called. stop
// blocks until the reporting goroutine has exited and is safe to call more
// than once. A nil sink starts nothing.
func StartHeartbeat(ctx context.Context, tracker *Tracker, interval time.Duration, sink Sink, onDrop Discard) (stop func()) {
	if sink == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if tracker.Done() {
					return
				}
				Send(ctx, sink, tracker.Format(""), onDrop)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
