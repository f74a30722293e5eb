package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"megastrength/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProducerMiddleware_CountsByResult(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	mw := m.ProducerMiddleware()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("broker down") }

	msg := kafka.Message{Topic: "bookings.events", Key: "1", Value: []byte("{}")}
	_ = mw(context.Background(), msg, ok)
	_ = mw(context.Background(), msg, ok)
	if err := mw(context.Background(), msg, fail); err == nil {
		t.Fatal("expected error to be passed through")
	}

	if got := testutil.ToFloat64(m.published.WithLabelValues("bookings.events", resultSuccess)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("bookings.events", resultFailure)); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}

func TestConsumerMiddleware_CountsByResult(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	mw := m.ConsumerMiddleware()

	msg := kafka.Message{Topic: "bookings.events"}
	_ = mw(context.Background(), msg, func(ctx context.Context, msg kafka.Message) error { return nil })

	if got := testutil.ToFloat64(m.consumed.WithLabelValues("bookings.events", resultSuccess)); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
}
