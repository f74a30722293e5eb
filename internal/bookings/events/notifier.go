package events

import (
	"context"
	"fmt"

	"megastrength/pkg/kafka"
	"megastrength/pkg/logger"
)

// NewNotificationHandler turns booking events into customer notifications.
// Undecodable payloads are permanent failures and go straight to the DLQ.
func NewNotificationHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("deserialization failed", err)
		}
		if event.BookingID == "" {
			return kafka.NewPermanentError("invalid message", fmt.Errorf("event %s has no booking id", msg.GetEventID()))
		}

		subject, ok := notificationSubject(event)
		if !ok {
			log.Debug("No notification for event", "type", event.Type, "booking_id", event.BookingID)
			return nil
		}

		attrs := []any{
			"subject", subject,
			"booking_id", event.BookingID,
			"event_id", msg.GetEventID(),
		}
		if b := event.Booking; b != nil {
			attrs = append(attrs,
				"customer_email", b.CustomerEmail,
				"service", b.Service,
				"preferred_date", b.PreferredDate.String(),
				"preferred_time", b.PreferredTime,
			)
		}
		log.Info("Customer notification", attrs...)
		return nil
	}
}

func notificationSubject(event Event) (string, bool) {
	switch event.Type {
	case TypeCreated:
		return "Booking received", true
	case TypeStatusChanged:
		return fmt.Sprintf("Booking %s", event.Status), true
	case TypeDeleted:
		return "Booking removed", true
	default:
		return "", false
	}
}
