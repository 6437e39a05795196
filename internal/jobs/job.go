package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"renderlane/internal/assets"
	"renderlane/internal/heygen"
)

// State represents the lifecycle of a job.
type State string

const (
	StateResolvingAsset State = "resolving_asset"
	StateSubmitting     State = "submitting"
	StatePolling        State = "polling"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
	StateTimedOut       State = "timed_out"
)

var allStates = []State{
	StateResolvingAsset,
	StateSubmitting,
	StatePolling,
	StateCompleted,
	StateFailed,
	StateTimedOut,
}

// forwardTransitions lists every legal state move. Failure is reachable from
// any non-terminal state; the other terminals only from Polling.
var forwardTransitions = map[State][]State{
	StateResolvingAsset: {StateSubmitting, StateFailed},
	StateSubmitting:     {StatePolling, StateFailed},
	StatePolling:        {StateCompleted, StateFailed, StateTimedOut},
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// Terminal reports whether the state ends a job's lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}

// Job is one request to turn an audio input into a video. A job belongs to
// exactly one lane for its entire lifetime and is mutated only by its own
// pipeline goroutine; other goroutines observe it through snapshots.
type Job struct {
	// Token is the locally issued identity, assigned before the remote
	// JobID exists and stable for the job's lifetime.
	Token string
	Lane  string

	AudioRef assets.AudioRef
	AvatarID string
	Options  heygen.RenderOptions

	// AssetRef is derived from AudioRef exactly once, at resolution.
	AssetRef heygen.AudioSource
	// JobID is assigned exactly once, at successful submission.
	JobID string

	State        State
	AttemptCount int

	// Exactly one of ResultURL and Err is set once State is terminal.
	ResultURL string
	Err       error

	// Download outcome is independent of the terminal state: a failed
	// download never reverts Completed.
	ArtifactPath string
	DownloadErr  error

	CreatedAt   time.Time
	SubmittedAt time.Time
	FinishedAt  time.Time
}

// NewJob creates a job in its initial state with a fresh local token.
func NewJob(lane string, ref assets.AudioRef, avatarID string, opts heygen.RenderOptions) *Job {
	return &Job{
		Token:     uuid.NewString(),
		Lane:      lane,
		AudioRef:  ref,
		AvatarID:  avatarID,
		Options:   opts,
		State:     StateResolvingAsset,
		CreatedAt: time.Now().UTC(),
	}
}

// advance moves the job to the next state, resetting the transient-retry
// counter. Invalid moves indicate a pipeline bug and are reported as errors.
func (j *Job) advance(to State) error {
	for _, allowed := range forwardTransitions[j.State] {
		if allowed == to {
			j.State = to
			j.AttemptCount = 0
			if to.Terminal() {
				j.FinishedAt = time.Now().UTC()
			}
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", j.State, to)
}

// fail moves the job to Failed with the given cause.
func (j *Job) fail(cause error) {
	if j.State.Terminal() {
		return
	}
	j.Err = cause
	_ = j.advance(StateFailed)
}

// TerminalReason returns the human-readable reason carried by a terminal
// state, empty while the job is still running.
func (j *Job) TerminalReason() string {
	switch {
	case !j.State.Terminal():
		return ""
	case j.Err != nil:
		return j.Err.Error()
	case j.State == StateCompleted:
		return "completed"
	default:
		return string(j.State)
	}
}

// Elapsed reports wall-clock time since job creation.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(j.CreatedAt)
}

// BaseName derives the preferred artifact base name from the audio reference.
func (j *Job) BaseName() string {
	if j.AudioRef == nil {
		return ""
	}
	return j.AudioRef.Basename()
}
