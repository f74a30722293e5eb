package metrics

import (
	"errors"
	"testing"
	"time"

	apperrors "megastrength/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ResultOK},
		{"conflict", apperrors.Conflict("taken"), "conflict"},
		{"validation", apperrors.Validation("bad", nil), "validation_error"},
		{"plain", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Result(tt.err); got != tt.want {
				t.Errorf("Result() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveOperation_CountsConflictsAndValidation(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Now()

	m.ObserveOperation("create", start, nil)
	m.ObserveOperation("create", start, apperrors.Conflict("taken"))
	m.ObserveOperation("create", start, apperrors.Conflict("taken"))
	m.ObserveOperation("create", start, apperrors.Validation("bad", nil))

	if got := testutil.ToFloat64(m.conflicts.WithLabelValues("create")); got != 2 {
		t.Errorf("conflicts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues("create")); got != 1 {
		t.Errorf("validation failures = %v, want 1", got)
	}
}

func TestStatusTransition(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.StatusTransition("pending", "cancelled")

	if got := testutil.ToFloat64(m.statusTransitions.WithLabelValues("pending", "cancelled")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}
