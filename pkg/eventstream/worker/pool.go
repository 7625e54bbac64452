// Package worker provides an asynchronous worker pool for publishing analysis
// events through an eventstream.Publisher.
//
// The pool decouples event publishing from the tool response path so that a
// slow or unavailable broker never delays an answer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/instagit/pkg/eventstream"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 15 * time.Second
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every enqueued event.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool (defaults to 2).
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds a single publish (defaults to 15s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes analysis events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *eventstream.AnalysisEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.Logger == nil {
		return nil, errors.New("worker pool requires a logger")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.AnalysisEvent, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an event for publishing.
// Returns true if enqueued, false if the queue is full or the event is nil,
// resulting in the event being dropped.
func (p *Pool) Enqueue(event *eventstream.AnalysisEvent) bool {
	if event == nil {
		return false
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued",
			"event_id", event.EventID,
			"repo", event.Source.Repo,
		)
		return true
	default:
		p.logger.Error("event not queued, queue full, event dropped",
			"event_id", event.EventID,
			"repo", event.Source.Repo,
		)
		return false
	}
}

// Close signals workers to stop and waits for queued events to drain.
// Call this during graceful shutdown, after the servers feeding the pool have
// stopped and before the publisher is closed. Enqueue must not be called
// after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

func (p *Pool) publish(event *eventstream.AnalysisEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishAnalysis(ctx, event); err != nil {
		p.logger.Warn("async event publish failed",
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("event published",
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
}
