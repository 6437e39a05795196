package jobs

import (
	"time"

	"renderlane/internal/config"
	"renderlane/internal/heygen"
)

// PollPolicy carries the named tuning knobs of the job state machine. The
// transient budget and the overall lifetime are independent axes: the first
// bounds consecutive status-endpoint failures, the second bounds the whole
// job regardless of how healthy the endpoint is.
type PollPolicy struct {
	// Interval between successful status queries that report work in
	// progress.
	Interval time.Duration
	// BackoffFloor is the delay after the first transient failure; it
	// doubles per attempt up to BackoffCeiling.
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	// TransientBudget bounds consecutive generic transport failures.
	TransientBudget int
	// ServerErrorBudget bounds consecutive 5xx and malformed-body
	// failures. The remote returns those transiently, so the budget is
	// larger than TransientBudget.
	ServerErrorBudget int
	// MaxJobLifetime bounds wall-clock time since submission.
	MaxJobLifetime time.Duration
}

// DefaultPollPolicy returns the tuning the remote service's observed
// behavior calls for.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:          10 * time.Second,
		BackoffFloor:      5 * time.Second,
		BackoffCeiling:    60 * time.Second,
		TransientBudget:   3,
		ServerErrorBudget: 6,
		MaxJobLifetime:    1000 * time.Second,
	}
}

// PolicyFromConfig converts the persisted poller section into a PollPolicy.
func PolicyFromConfig(p config.Poller) PollPolicy {
	policy := DefaultPollPolicy()
	if p.IntervalSeconds > 0 {
		policy.Interval = time.Duration(p.IntervalSeconds) * time.Second
	}
	if p.BackoffFloorSeconds > 0 {
		policy.BackoffFloor = time.Duration(p.BackoffFloorSeconds) * time.Second
	}
	if p.BackoffCeilingSeconds > 0 {
		policy.BackoffCeiling = time.Duration(p.BackoffCeilingSeconds) * time.Second
	}
	if p.TransientBudget > 0 {
		policy.TransientBudget = p.TransientBudget
	}
	if p.ServerErrorBudget > 0 {
		policy.ServerErrorBudget = p.ServerErrorBudget
	}
	if p.MaxJobLifetimeSeconds > 0 {
		policy.MaxJobLifetime = time.Duration(p.MaxJobLifetimeSeconds) * time.Second
	}
	return policy
}

// Backoff returns the delay before retry attempt n (1-based). Delays never
// decrease attempt-to-attempt and never exceed the ceiling.
func (p PollPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BackoffFloor
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.BackoffCeiling {
			return p.BackoffCeiling
		}
	}
	if delay > p.BackoffCeiling {
		return p.BackoffCeiling
	}
	return delay
}

// BudgetFor returns the consecutive-failure budget that applies to err:
// server errors and undecodable bodies get the larger budget.
func (p PollPolicy) BudgetFor(err error) int {
	if heygen.IsServerError(err) || heygen.IsMalformed(err) {
		return p.ServerErrorBudget
	}
	return p.TransientBudget
}
