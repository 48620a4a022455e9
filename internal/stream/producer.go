// Package stream publishes trip lifecycle events to Kafka for
// downstream consumers (analytics, push delivery). The stream is
// fire-and-forget: the reconciliation transaction has already committed
// by the time an event is published, and a publish failure is logged,
// never surfaced to the user.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/commutelink/rideshare-backend/internal/models"
	"github.com/segmentio/kafka-go"
)

// TripEvent is the wire format of one lifecycle event
type TripEvent struct {
	Event      string       `json:"event"`
	TripID     string       `json:"trip_id"`
	ActorID    string       `json:"actor_id,omitempty"`
	Trip       *models.Trip `json:"trip,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Producer writes trip events to a Kafka topic. A nil Producer is a
// valid no-op, used when no brokers are configured.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer, or nil when brokers is empty
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w}
}

// Publish writes one event keyed by trip id
func (p *Producer) Publish(event, tripID, actorID string, trip *models.Trip) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := TripEvent{
		Event:      event,
		TripID:     tripID,
		ActorID:    actorID,
		Trip:       trip,
		OccurredAt: time.Now(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(tripID), Value: b})
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
