package lanes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"renderlane/internal/assets"
	"renderlane/internal/catalog"
	"renderlane/internal/config"
	"renderlane/internal/download"
	"renderlane/internal/events"
	"renderlane/internal/heygen"
	"renderlane/internal/jobs"
	"renderlane/internal/logging"
)

// Scheduler owns the configured lanes and their shared collaborators. Lanes
// are constructed once, at startup; their set never changes while the
// scheduler runs.
type Scheduler struct {
	hub     *events.Hub
	journal jobs.Journal
	catalog *catalog.Catalog
	logger  *slog.Logger

	lanes map[string]*Lane
	order []string

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures optional Scheduler collaborators.
type Option func(*options)

type options struct {
	hub           *events.Hub
	journal       jobs.Journal
	catalog       *catalog.Catalog
	logger        *slog.Logger
	clientOptions []heygen.Option
	pollerOptions []jobs.PollerOption
}

// WithHub attaches the lifecycle event hub.
func WithHub(hub *events.Hub) Option {
	return func(o *options) { o.hub = hub }
}

// WithJournal attaches the outcome journal.
func WithJournal(journal jobs.Journal) Option {
	return func(o *options) { o.journal = journal }
}

// WithCatalog attaches an avatar catalog used to validate job requests.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClientOptions appends options to every lane's remote client.
func WithClientOptions(opts ...heygen.Option) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// WithPollerOptions appends options to every lane's poller.
func WithPollerOptions(opts ...jobs.PollerOption) Option {
	return func(o *options) { o.pollerOptions = append(o.pollerOptions, opts...) }
}

// NewScheduler builds one lane per configured credential.
func NewScheduler(cfg *config.Config, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if len(cfg.Lanes) == 0 {
		return nil, errors.New("no lanes configured")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.NewComponentLogger(o.logger, "scheduler")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		hub:     o.hub,
		journal: o.journal,
		catalog: o.catalog,
		logger:  logger,
		lanes:   make(map[string]*Lane, len(cfg.Lanes)),
		ctx:     ctx,
		cancel:  cancel,
	}

	policy := jobs.PolicyFromConfig(cfg.Poller)
	for _, laneCfg := range cfg.Lanes {
		lane, err := s.buildLane(cfg, laneCfg, policy, o)
		if err != nil {
			cancel()
			return nil, err
		}
		s.lanes[lane.name] = lane
		s.order = append(s.order, lane.name)
	}

	return s, nil
}

func (s *Scheduler) buildLane(cfg *config.Config, laneCfg config.Lane, policy jobs.PollPolicy, o *options) (*Lane, error) {
	laneLogger := logging.NewComponentLogger(o.logger, "lane").With(
		logging.String(logging.FieldLane, laneCfg.Name),
	)

	clientOpts := []heygen.Option{
		heygen.WithBaseURL(cfg.Remote.BaseURL),
		heygen.WithUploadBaseURL(cfg.Remote.UploadBaseURL),
		heygen.WithTimeouts(
			time.Duration(cfg.Remote.RequestTimeoutSeconds)*time.Second,
			time.Duration(cfg.Remote.UploadTimeoutSeconds)*time.Second,
		),
	}
	if laneCfg.ProxyURL != "" {
		proxy, err := url.Parse(laneCfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("lane %s: parse proxy url: %w", laneCfg.Name, err)
		}
		clientOpts = append(clientOpts, heygen.WithProxy(proxy))
	}
	clientOpts = append(clientOpts, o.clientOptions...)
	client := heygen.NewClient(laneCfg.APIKey, clientOpts...)

	pollerOpts := []jobs.PollerOption{}
	if o.hub != nil {
		hub := o.hub
		pollerOpts = append(pollerOpts, jobs.WithRetryHook(func(job *jobs.Job, cause error, delay time.Duration) {
			hub.Publish(events.Event{
				Type:     events.TypeRetry,
				Lane:     job.Lane,
				JobToken: job.Token,
				JobID:    job.JobID,
				State:    string(job.State),
				Attempt:  job.AttemptCount,
				Error:    cause.Error(),
				Message:  fmt.Sprintf("retrying in %s", delay),
			})
		}))
	}
	pollerOpts = append(pollerOpts, o.pollerOptions...)

	pipeline := jobs.NewPipeline(jobs.PipelineDeps{
		Resolver:  assets.NewResolver(client, laneLogger),
		Submitter: client,
		Poller:    jobs.NewPoller(client, policy, laneLogger, pollerOpts...),
		Fetcher:   download.NewDownloader(laneLogger),
		OutputDir: cfg.Paths.OutputDir,
		Hub:       o.hub,
		Journal:   o.journal,
		Logger:    laneLogger,
	})

	return &Lane{
		name:     laneCfg.Name,
		client:   client,
		pipeline: pipeline,
		catalog:  o.catalog,
		logger:   laneLogger,
		baseCtx:  s.ctx,
		active:   make(map[string]*activeJob),
	}, nil
}

// Lane returns the named lane.
func (s *Scheduler) Lane(name string) (*Lane, bool) {
	lane, ok := s.lanes[name]
	return lane, ok
}

// LaneNames returns the configured lane names in configuration order.
func (s *Scheduler) LaneNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// CreateJob starts a job on the named lane.
func (s *Scheduler) CreateJob(laneName, input, avatarID string, opts heygen.RenderOptions) (string, error) {
	lane, ok := s.lanes[laneName]
	if !ok {
		return "", jobs.Wrap(jobs.ErrInput, "scheduler", "create", fmt.Sprintf("unknown lane %q", laneName), nil)
	}
	return lane.CreateJob(input, avatarID, opts)
}

// HasActiveJobs reports whether any lane still has running jobs.
func (s *Scheduler) HasActiveJobs() bool {
	for _, lane := range s.lanes {
		if lane.HasActiveJobs() {
			return true
		}
	}
	return false
}

// Shutdown stops accepting new jobs and waits for running jobs to finish.
// When the context expires first, remaining jobs are cancelled and the wait
// resumes until they unwind.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	// Close every lane's intake up front so no lane accepts new jobs while
	// an earlier one drains.
	for _, name := range s.order {
		s.lanes[name].closeIntake()
	}

	done := make(chan struct{})
	go func() {
		for _, name := range s.order {
			s.lanes[name].drain()
		}
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown deadline reached; cancelling running jobs")
		for _, name := range s.order {
			publishLog(s.hub, name, "shutdown cancelled running jobs")
		}
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// Close cancels all running jobs immediately and waits for them to unwind.
func (s *Scheduler) Close() {
	for _, name := range s.order {
		s.lanes[name].closeIntake()
	}
	s.cancel()
	for _, name := range s.order {
		s.lanes[name].drain()
	}
}
