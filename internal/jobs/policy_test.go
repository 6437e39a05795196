package jobs_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"renderlane/internal/config"
	"renderlane/internal/heygen"
	"renderlane/internal/jobs"
)

func TestBackoffNeverDecreasesAndIsCapped(t *testing.T) {
	t.Parallel()

	policy := jobs.DefaultPollPolicy()
	prev := time.Duration(0)
	for attempt := 1; attempt <= 12; attempt++ {
		delay := policy.Backoff(attempt)
		if delay < prev {
			t.Fatalf("backoff decreased at attempt %d: %v -> %v", attempt, prev, delay)
		}
		if delay > policy.BackoffCeiling {
			t.Fatalf("backoff exceeded ceiling at attempt %d: %v", attempt, delay)
		}
		prev = delay
	}
	if policy.Backoff(1) != policy.BackoffFloor {
		t.Fatalf("first backoff should be the floor, got %v", policy.Backoff(1))
	}
	if policy.Backoff(100) != policy.BackoffCeiling {
		t.Fatalf("late backoff should be the ceiling, got %v", policy.Backoff(100))
	}
}

func TestPolicyFromConfigOverrides(t *testing.T) {
	t.Parallel()

	policy := jobs.PolicyFromConfig(config.Poller{
		IntervalSeconds:       3,
		TransientBudget:       5,
		MaxJobLifetimeSeconds: 30,
	})
	if policy.Interval != 3*time.Second {
		t.Fatalf("unexpected interval %v", policy.Interval)
	}
	if policy.TransientBudget != 5 {
		t.Fatalf("unexpected budget %d", policy.TransientBudget)
	}
	if policy.MaxJobLifetime != 30*time.Second {
		t.Fatalf("unexpected lifetime %v", policy.MaxJobLifetime)
	}
	// Unset fields keep their defaults.
	if policy.ServerErrorBudget != jobs.DefaultPollPolicy().ServerErrorBudget {
		t.Fatalf("expected default server budget, got %d", policy.ServerErrorBudget)
	}
}

func TestBudgetForSelectsLargerBudgetForServerFailures(t *testing.T) {
	t.Parallel()

	policy := jobs.DefaultPollPolicy()
	if got := policy.BudgetFor(errors.New("connection reset")); got != policy.TransientBudget {
		t.Fatalf("generic errors get the transient budget, got %d", got)
	}

	serverErr := fmt.Errorf("job status: %w", &heygen.ServerError{StatusCode: 502})
	if got := policy.BudgetFor(serverErr); got != policy.ServerErrorBudget {
		t.Fatalf("5xx errors get the server budget, got %d", got)
	}
	malformed := fmt.Errorf("job status: %w", &heygen.MalformedError{Err: errors.New("invalid character '<'")})
	if got := policy.BudgetFor(malformed); got != policy.ServerErrorBudget {
		t.Fatalf("malformed bodies get the server budget, got %d", got)
	}
}
