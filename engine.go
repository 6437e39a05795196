// Package renderlane turns audio inputs into avatar videos by driving a
// remote generation service: resolve the audio to a usable reference, submit
// the render, poll until the remote finishes, then download the artifact.
// Jobs run concurrently across independent credentialed lanes.
//
// The Engine is the assembled system: config, journal store, avatar catalog,
// event hub, and the lane scheduler. Embedders that want finer control wire
// the internal packages themselves.
package renderlane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"renderlane/internal/catalog"
	"renderlane/internal/config"
	"renderlane/internal/events"
	"renderlane/internal/heygen"
	"renderlane/internal/jobs"
	"renderlane/internal/lanes"
	"renderlane/internal/logging"
	"renderlane/internal/store"
)

// Event is one job lifecycle event from the engine's hub.
type Event = events.Event

// Outcome is one journaled job result.
type Outcome = store.Outcome

// RenderOptions override the default video parameters for one job.
type RenderOptions = heygen.RenderOptions

// VideoSummary is one entry from a lane's recent-video listing.
type VideoSummary = heygen.VideoSummary

// Engine is the assembled orchestration system.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	hub       *events.Hub
	catalog   *catalog.Catalog
	scheduler *lanes.Scheduler
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger        *slog.Logger
	eventCapacity int
}

// WithLogger attaches a structured logger; without one the engine is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithEventCapacity sets the event hub's ring size.
func WithEventCapacity(capacity int) Option {
	return func(o *engineOptions) { o.eventCapacity = capacity }
}

// Open loads the TOML configuration at path (or the default location when
// empty) and assembles an Engine. The state directory gains an exclusive
// lock; a second Open against the same directory fails.
func Open(path string, opts ...Option) (*Engine, error) {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, opts...)
}

func newEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.NewComponentLogger(o.logger, "engine")

	// The catalog client below borrows the first lane's credential, so a
	// lane-less config must be rejected before anything is opened.
	if len(cfg.Lanes) == 0 {
		return nil, errors.New("no lanes configured")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Paths.StateDir)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub(o.eventCapacity)

	// The first lane's credential serves catalog reads; avatar sets are
	// identical across one account's keys.
	catalogClient := heygen.NewClient(cfg.Lanes[0].APIKey,
		heygen.WithBaseURL(cfg.Remote.BaseURL),
		heygen.WithUploadBaseURL(cfg.Remote.UploadBaseURL),
		heygen.WithTimeouts(
			time.Duration(cfg.Remote.RequestTimeoutSeconds)*time.Second,
			time.Duration(cfg.Remote.UploadTimeoutSeconds)*time.Second,
		),
	)
	cat := catalog.New(catalogClient,
		catalog.WithPersister(st),
		catalog.WithLogger(o.logger),
	)
	if err := cat.Seed(context.Background()); err != nil {
		logger.Warn("avatar catalog seed failed", logging.Error(err))
	}

	sched, err := lanes.NewScheduler(cfg,
		lanes.WithHub(hub),
		lanes.WithJournal(st),
		lanes.WithCatalog(cat),
		lanes.WithLogger(o.logger),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	if spec := cfg.Catalog.AutoRefreshCron; spec != "" {
		if err := cat.StartAutoRefresh(spec); err != nil {
			sched.Close()
			_ = st.Close()
			return nil, err
		}
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		hub:       hub,
		catalog:   cat,
		scheduler: sched,
	}, nil
}

// CreateJob starts one render job on the named lane and returns its token.
func (e *Engine) CreateJob(lane, audio, avatarID string, opts RenderOptions) (string, error) {
	return e.scheduler.CreateJob(lane, audio, avatarID, opts)
}

// CancelJob requests cancellation of a running job.
func (e *Engine) CancelJob(lane, token string) bool {
	l, ok := e.scheduler.Lane(lane)
	if !ok {
		return false
	}
	return l.CancelJob(token)
}

// Lanes returns the configured lane names.
func (e *Engine) Lanes() []string {
	return e.scheduler.LaneNames()
}

// HasActiveJobs reports whether any lane still has running jobs.
func (e *Engine) HasActiveJobs() bool {
	return e.scheduler.HasActiveJobs()
}

// LaneHasActiveJobs reports whether the named lane has running jobs.
func (e *Engine) LaneHasActiveJobs(lane string) (bool, error) {
	l, ok := e.scheduler.Lane(lane)
	if !ok {
		return false, fmt.Errorf("unknown lane %q", lane)
	}
	return l.HasActiveJobs(), nil
}

// Avatars returns the current catalog snapshot without touching the network.
func (e *Engine) Avatars() []string {
	return e.catalog.IDs()
}

// RefreshAvatars fetches the avatar list and replaces the snapshot.
func (e *Engine) RefreshAvatars(ctx context.Context) ([]string, error) {
	return e.catalog.Refresh(ctx)
}

// Quota returns the named lane's remaining quota as a display string, for
// example "2.00 (2.0 credits / 4:00)".
func (e *Engine) Quota(ctx context.Context, lane string) (string, error) {
	l, ok := e.scheduler.Lane(lane)
	if !ok {
		return "", fmt.Errorf("unknown lane %q", lane)
	}
	est, err := l.CheckQuota(ctx)
	if err != nil {
		return "", err
	}
	return est.String(), nil
}

// Videos lists the named lane's recent remote videos.
func (e *Engine) Videos(ctx context.Context, lane string, limit int) ([]VideoSummary, error) {
	l, ok := e.scheduler.Lane(lane)
	if !ok {
		return nil, fmt.Errorf("unknown lane %q", lane)
	}
	list, err := l.ListVideos(ctx, limit)
	if err != nil {
		return nil, err
	}
	return list.Videos, nil
}

// Events returns lifecycle events after the given sequence number. With wait
// set, the call blocks until new events arrive or the context ends.
func (e *Engine) Events(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	return e.hub.Fetch(ctx, since, limit, wait)
}

// Outcomes returns the most recently journaled job results, newest first.
func (e *Engine) Outcomes(ctx context.Context, limit int) ([]*Outcome, error) {
	return e.store.ListOutcomes(ctx, limit)
}

// Outcome returns the journaled result for one job token.
func (e *Engine) Outcome(ctx context.Context, token string) (*Outcome, error) {
	return e.store.OutcomeByToken(ctx, token)
}

// Shutdown stops accepting jobs and drains running ones, cancelling whatever
// remains when the context expires, then releases all resources.
func (e *Engine) Shutdown(ctx context.Context) error {
	shutdownErr := e.scheduler.Shutdown(ctx)
	e.catalog.Stop()
	closeErr := e.store.Close()
	if shutdownErr != nil {
		return shutdownErr
	}
	return closeErr
}

// Close cancels all running jobs and releases resources.
func (e *Engine) Close() error {
	e.scheduler.Close()
	e.catalog.Stop()
	return e.store.Close()
}

// Error classes callers can match with errors.Is.
var (
	// ErrJobNotFound reports a token with no journaled outcome yet.
	ErrJobNotFound = store.ErrNotFound
	// ErrInvalidInput marks rejected job requests (bad lane, empty audio,
	// unknown avatar).
	ErrInvalidInput = jobs.ErrInput
	// ErrCancelled marks jobs refused because the engine is shutting down.
	ErrCancelled = jobs.ErrCancelled
)
