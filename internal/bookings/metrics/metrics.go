package metrics

import (
	"errors"
	"strings"
	"time"

	apperrors "megastrength/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "megastrength"
	subsystem = "bookings"

	ResultOK = "ok"
)

type Metrics struct {
	created             prometheus.Counter
	conflicts           *prometheus.CounterVec
	validationFailures  *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	availabilityQueries prometheus.Counter
	latency             *prometheus.HistogramVec
}

// New registers the booking collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		created: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "created_total",
			Help:      "Bookings created.",
		}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_conflicts_total",
			Help:      "Requests rejected because the slot was already taken.",
		}, []string{"operation"}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_failures_total",
			Help:      "Requests rejected by validation.",
		}, []string{"operation"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Status changes by source and target status.",
		}, []string{"from", "to"}),
		availabilityQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "availability_queries_total",
			Help:      "Availability lookups served.",
		}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Scheduler operation latency by result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}
}

func (m *Metrics) BookingCreated() {
	m.created.Inc()
}

func (m *Metrics) StatusTransition(from, to string) {
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) AvailabilityQueried() {
	m.availabilityQueries.Inc()
}

// ObserveOperation records latency and counts conflicts and validation failures by operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	result := Result(err)
	m.latency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())

	switch {
	case apperrors.HasCode(err, apperrors.CodeConflict):
		m.conflicts.WithLabelValues(operation).Inc()
	case apperrors.HasCode(err, apperrors.CodeValidation), apperrors.HasCode(err, apperrors.CodeInvalidInput):
		m.validationFailures.WithLabelValues(operation).Inc()
	}
}

// Result maps an error to a low-cardinality label: "ok", the lower-cased AppError code, or "error".
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
