package jobs

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"renderlane/internal/heygen"
	"renderlane/internal/logging"
)

// StatusClient is the slice of the remote client the poller needs.
type StatusClient interface {
	JobStatus(ctx context.Context, jobID string) (heygen.VideoStatus, error)
}

// Poller drives a submitted job to its terminal state by querying the remote
// status endpoint. It is independent of any UI loop; tests inject a clock
// and sleeper to run it synchronously.
type Poller struct {
	client  StatusClient
	policy  PollPolicy
	logger  *slog.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	onRetry func(job *Job, err error, delay time.Duration)
}

// PollerOption customizes poller behavior.
type PollerOption func(*Poller)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSleep overrides the delay primitive (tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithRetryHook registers a callback invoked on every absorbed transient
// failure, before the backoff delay.
func WithRetryHook(hook func(job *Job, err error, delay time.Duration)) PollerOption {
	return func(p *Poller) {
		p.onRetry = hook
	}
}

// NewPoller constructs a Poller.
func NewPoller(client StatusClient, policy PollPolicy, logger *slog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		client: client,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "poller"),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls until the job reaches a terminal state. The job is mutated in
// place; the returned error is non-nil only when the context ended, in which
// case the job has been marked failed with ErrCancelled.
func (p *Poller) Wait(ctx context.Context, job *Job) error {
	deadline := job.SubmittedAt.Add(p.policy.MaxJobLifetime)

	for {
		// Cooperative checks happen between ticks, never mid-request.
		if err := ctx.Err(); err != nil {
			job.fail(Wrap(ErrCancelled, "poller", "wait", "cancelled", context.Cause(ctx)))
			return err
		}
		if p.now().After(deadline) {
			job.Err = Wrap(ErrExhausted, "poller", "wait", "job lifetime exceeded", nil)
			_ = job.advance(StateTimedOut)
			p.logger.Warn("job timed out",
				logging.String(logging.FieldJobID, job.JobID),
				logging.Duration("lifetime", p.policy.MaxJobLifetime),
			)
			return nil
		}

		status, err := p.client.JobStatus(ctx, job.JobID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// Cancellation does not abort the in-flight call, it only
				// suppresses acting on its result.
				job.fail(Wrap(ErrCancelled, "poller", "wait", "cancelled", context.Cause(ctx)))
				return ctxErr
			}
			if stop := p.absorbTransient(ctx, job, err); stop {
				return nil
			}
			continue
		}

		switch strings.ToLower(strings.TrimSpace(status.Status)) {
		case heygen.StatusCompleted:
			if status.VideoURL == "" {
				job.fail(Wrap(ErrRejected, "poller", "wait", "remote reported completed without an artifact url", nil))
				return nil
			}
			job.ResultURL = status.VideoURL
			_ = job.advance(StateCompleted)
			return nil
		case heygen.StatusFailed:
			reason := strings.TrimSpace(status.Error)
			if reason == "" {
				reason = "remote reported failure without a reason"
			}
			job.fail(Wrap(ErrRejected, "poller", "wait", reason, nil))
			return nil
		default:
			// Still processing, or an unrecognized status. A successful
			// query resets transient-failure counting either way.
			job.AttemptCount = 0
			if err := p.sleep(ctx, p.policy.Interval); err != nil {
				job.fail(Wrap(ErrCancelled, "poller", "wait", "cancelled", context.Cause(ctx)))
				return err
			}
		}
	}
}

// absorbTransient counts one transient failure against the applicable budget
// and sleeps the backoff delay. It reports true when the budget is spent and
// the job has been failed.
func (p *Poller) absorbTransient(ctx context.Context, job *Job, cause error) bool {
	job.AttemptCount++
	budget := p.policy.BudgetFor(cause)
	if job.AttemptCount > budget {
		job.fail(Wrap(ErrExhausted, "poller", "wait", "polling budget exhausted", cause))
		return true
	}

	delay := p.policy.Backoff(job.AttemptCount)
	p.logger.Warn("status query failed; will retry",
		logging.String(logging.FieldJobID, job.JobID),
		logging.Int(logging.FieldAttempt, job.AttemptCount),
		logging.Int("budget", budget),
		logging.Duration("backoff", delay),
		logging.Error(cause),
	)
	if p.onRetry != nil {
		p.onRetry(job, cause, delay)
	}
	if err := p.sleep(ctx, delay); err != nil {
		job.fail(Wrap(ErrCancelled, "poller", "wait", "cancelled", context.Cause(ctx)))
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
