package lanes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"renderlane/internal/assets"
	"renderlane/internal/catalog"
	"renderlane/internal/events"
	"renderlane/internal/heygen"
	"renderlane/internal/jobs"
	"renderlane/internal/logging"
	"renderlane/internal/quota"
)

// Lane is one credentialed execution lane. Its client and pipeline are
// immutable after construction; only the active-job registry is mutable, and
// it is guarded by the lane mutex.
type Lane struct {
	name     string
	client   *heygen.Client
	pipeline *jobs.Pipeline
	catalog  *catalog.Catalog
	logger   *slog.Logger

	baseCtx context.Context

	mu     sync.Mutex
	active map[string]*activeJob
	closed bool
	wg     sync.WaitGroup
}

type activeJob struct {
	job    *jobs.Job
	cancel context.CancelFunc
}

// Name returns the lane identifier.
func (l *Lane) Name() string { return l.name }

// CreateJob parses the audio input, validates the avatar against the catalog
// snapshot, and starts the job pipeline in its own goroutine. It returns the
// job token immediately; progress is observable through the event hub and
// the journal.
func (l *Lane) CreateJob(input, avatarID string, opts heygen.RenderOptions) (string, error) {
	ref := assets.ParseAudioRef(input)
	return l.CreateJobRef(ref, avatarID, opts)
}

// CreateJobRef is CreateJob for callers that already hold a typed reference.
func (l *Lane) CreateJobRef(ref assets.AudioRef, avatarID string, opts heygen.RenderOptions) (string, error) {
	if emptyRef(ref) {
		return "", jobs.Wrap(jobs.ErrInput, "lane", "create", "empty audio reference", nil)
	}
	if avatarID == "" {
		return "", jobs.Wrap(jobs.ErrInput, "lane", "create", "avatar id is required", nil)
	}
	if l.catalog != nil {
		if err := l.catalog.Validate(avatarID); err != nil {
			return "", jobs.Wrap(jobs.ErrInput, "lane", "create", "", err)
		}
	}

	job := jobs.NewJob(l.name, ref, avatarID, opts)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return "", jobs.Wrap(jobs.ErrCancelled, "lane", "create", "lane is shutting down", nil)
	}
	jobCtx, cancel := context.WithCancel(l.baseCtx)
	l.active[job.Token] = &activeJob{job: job, cancel: cancel}
	l.wg.Add(1)
	l.mu.Unlock()

	l.logger.Info("job accepted",
		logging.String(logging.FieldJobToken, job.Token),
		logging.String("audio", ref.Describe()),
		logging.String("avatar", avatarID),
	)

	go func() {
		defer l.wg.Done()
		defer cancel()
		defer l.forget(job.Token)
		l.pipeline.Run(jobCtx, job)
	}()

	return job.Token, nil
}

func (l *Lane) forget(token string) {
	l.mu.Lock()
	delete(l.active, token)
	l.mu.Unlock()
}

// HasActiveJobs reports whether any job pipeline is still running. Callers
// use this to decide when lane-level controls may be re-enabled.
func (l *Lane) HasActiveJobs() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active) > 0
}

// ActiveTokens returns the tokens of running jobs, sorted.
func (l *Lane) ActiveTokens() []string {
	l.mu.Lock()
	tokens := make([]string, 0, len(l.active))
	for token := range l.active {
		tokens = append(tokens, token)
	}
	l.mu.Unlock()
	sort.Strings(tokens)
	return tokens
}

// CancelJob requests cancellation of one running job. It reports whether the
// token named an active job; the job itself finishes asynchronously in the
// Failed state.
func (l *Lane) CancelJob(token string) bool {
	l.mu.Lock()
	entry, ok := l.active[token]
	l.mu.Unlock()
	if !ok {
		return false
	}
	entry.cancel()
	return true
}

// CheckQuota fetches the account's remaining quota and converts it to the
// render-time estimate.
func (l *Lane) CheckQuota(ctx context.Context) (quota.Estimate, error) {
	raw, err := l.client.RemainingQuota(ctx)
	if err != nil {
		return quota.Unknown(), fmt.Errorf("lane %s: check quota: %w", l.name, err)
	}
	return quota.FromRaw(raw), nil
}

// ListVideos fetches the account's recent videos.
func (l *Lane) ListVideos(ctx context.Context, limit int) (heygen.VideoList, error) {
	list, err := l.client.ListVideos(ctx, limit)
	if err != nil {
		return heygen.VideoList{}, fmt.Errorf("lane %s: list videos: %w", l.name, err)
	}
	return list, nil
}

func emptyRef(ref assets.AudioRef) bool {
	switch v := ref.(type) {
	case nil:
		return true
	case assets.LocalPath:
		return strings.TrimSpace(string(v)) == ""
	case assets.RemoteURL:
		return strings.TrimSpace(string(v)) == ""
	}
	return false
}

// closeIntake stops the lane accepting new jobs.
func (l *Lane) closeIntake() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// drain marks the lane closed and waits for running jobs to finish.
func (l *Lane) drain() {
	l.closeIntake()
	l.wg.Wait()
}

// publishLog emits a lane-scoped log event to the hub, if one is attached.
func publishLog(hub *events.Hub, lane, message string) {
	if hub == nil {
		return
	}
	hub.Publish(events.Event{
		Type:    events.TypeLog,
		Lane:    lane,
		Message: message,
	})
}
