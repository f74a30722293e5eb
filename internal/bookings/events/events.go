package events

import (
	"context"
	"time"

	"megastrength/pkg/model"
)

const (
	TypeCreated       = "booking.created"
	TypeUpdated       = "booking.updated"
	TypeStatusChanged = "booking.status_changed"
	TypeDeleted       = "booking.deleted"

	Source        = "bookings"
	SchemaVersion = "1"
)

// Event is the payload published for every booking lifecycle change.
type Event struct {
	Type           string         `json:"type"`
	BookingID      string         `json:"booking_id"`
	Status         string         `json:"status,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	Booking        *model.Booking `json:"booking,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func Created(b *model.Booking) Event {
	return newEvent(TypeCreated, b)
}

func Updated(b *model.Booking) Event {
	return newEvent(TypeUpdated, b)
}

func StatusChanged(b *model.Booking, previous string) Event {
	e := newEvent(TypeStatusChanged, b)
	e.PreviousStatus = previous
	return e
}

func Deleted(id string) Event {
	return Event{Type: TypeDeleted, BookingID: id, OccurredAt: time.Now().UTC()}
}

func newEvent(eventType string, b *model.Booking) Event {
	return Event{
		Type:       eventType,
		BookingID:  b.ID,
		Status:     b.Status,
		Booking:    b,
		OccurredAt: time.Now().UTC(),
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }
