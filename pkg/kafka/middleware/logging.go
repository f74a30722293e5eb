package kafka_middleware

import (
	"context"
	"time"

	"megastrength/pkg/kafka"
	"megastrength/pkg/logger"
)

// LoggingProducerMiddleware logs one line per publish attempt.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"booking_id", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to publish booking event", append(attrs, "error", err)...)
		} else {
			log.Info("Published booking event", attrs...)
		}
		return err
	}
}

// LoggingConsumerMiddleware logs each handler run, including the retry count and failure class.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"booking_id", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"retry_count", msg.GetRetryCount(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to handle booking event", append(attrs, "error", err, "error_type", kafka.ClassifyError(err).String())...)
		} else {
			log.Info("Handled booking event", attrs...)
		}
		return err
	}
}
