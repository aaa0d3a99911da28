package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/inkwellapp/inkwell-server/internal/sse"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic as JSON. Messages are
// keyed by aggregate so all events about one post land on one partition in
// order. Heartbeats are not published.
type KafkaPublisher struct {
	w      messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates an asynchronous publisher for topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: kgo.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kgo.Message, err error) {
			if err != nil {
				logger.Error("kafka publish failed", "topic", topic, "messages", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{w: w, logger: logger}
}

// Emit implements Emitter.
func (p *KafkaPublisher) Emit(event any) {
	evt, ok := event.(sse.Event)
	if !ok || evt.Type == sse.EventHeartbeat {
		return
	}

	value, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("failed to encode event for kafka", "event_type", string(evt.Type), "error", err)
		return
	}

	msg := kgo.Message{
		Key:     []byte(evt.Key),
		Value:   value,
		Time:    evt.Timestamp,
		Headers: []kgo.Header{{Key: "event-type", Value: []byte(evt.Type)}},
	}
	if err := p.w.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Error("failed to queue event for kafka", "event_type", string(evt.Type), "error", err)
	}
}

// Shutdown flushes pending messages and closes the writer.
func (p *KafkaPublisher) Shutdown() error {
	return p.w.Close()
}
