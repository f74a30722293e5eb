package mongo

import (
	"context"
	"errors"
	"testing"
)

func TestNewRunner_DirectWhenDisabled(t *testing.T) {
	for _, tc := range []struct {
		name         string
		transactions bool
	}{
		{"transactions disabled", false},
		{"no client", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			runner := NewRunner(nil, tc.transactions)
			if _, ok := runner.(directRunner); !ok {
				t.Fatalf("expected directRunner, got %T", runner)
			}

			sentinel := errors.New("slot taken")
			calls := 0
			err := runner.Run(context.Background(), func(context.Context) error {
				calls++
				return sentinel
			})
			if calls != 1 {
				t.Errorf("fn called %d times, want 1", calls)
			}
			if err != sentinel {
				t.Errorf("Run() = %v, want the callback error unchanged", err)
			}
		})
	}
}
