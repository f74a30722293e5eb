package events

import (
	"context"

	"megastrength/pkg/kafka"
	"megastrength/pkg/middleware"
)

// MessageProducer is the part of *kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer MessageProducer
}

// NewKafkaPublisher keys every message by booking id so one booking's events stay on one partition.
// The HTTP request id, when present, travels as the correlation id.
func NewKafkaPublisher(producer MessageProducer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithSource(Source).
		WithSchemaVersion(SchemaVersion).
		WithTimestamp(event.OccurredAt).
		WithCorrelationID(middleware.RequestID(ctx)).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
