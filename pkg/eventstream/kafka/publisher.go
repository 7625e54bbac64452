// Package kafka publishes analysis events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/instagit/pkg/eventstream"
)

const defaultWriteTimeout = 10 * time.Second

// Config configures the Kafka publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses, host:port.
	Brokers []string

	// Topic receives every analysis event.
	Topic string

	// WriteTimeout bounds a single write. Defaults to 10s.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes analysis events as JSON messages keyed by repository, so
// events for one repository land on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher. Connections are established lazily
// on the first write.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	if c.Logger == nil {
		return nil, errors.New("kafka publisher requires a logger")
	}

	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, c.Topic, c.Logger), nil
}

func newPublisher(w messageWriter, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger,
	}
}

// PublishAnalysis encodes the event and writes it synchronously.
func (p *Publisher) PublishAnalysis(ctx context.Context, event *eventstream.AnalysisEvent) error {
	if event == nil {
		return eventstream.ErrNilAnalysisEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding analysis event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Source.Repo),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing analysis event to %s: %w", p.topic, err)
	}

	p.logger.Debug("analysis event published",
		"topic", p.topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Close flushes pending writes and closes broker connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
