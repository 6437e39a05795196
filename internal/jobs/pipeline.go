package jobs

import (
	"context"
	"log/slog"
	"time"

	"renderlane/internal/assets"
	"renderlane/internal/events"
	"renderlane/internal/heygen"
	"renderlane/internal/logging"
)

// Resolver is the slice of the asset resolver the pipeline needs.
type Resolver interface {
	Resolve(ctx context.Context, ref assets.AudioRef) (heygen.AudioSource, error)
}

// Submitter is the slice of the remote client that starts generation.
type Submitter interface {
	GenerateVideo(ctx context.Context, avatarID string, audio heygen.AudioSource, opts heygen.RenderOptions) (string, error)
}

// Fetcher is the slice of the downloader the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, resultURL, destDir, baseName, fallback string) (string, error)
}

// Journal receives per-job terminal outcomes for the persistence
// collaborator. Implementations must tolerate repeated records for the same
// token (the download outcome lands after the terminal state).
type Journal interface {
	RecordOutcome(ctx context.Context, job *Job) error
}

// PipelineDeps wires one lane's collaborators into a pipeline.
type PipelineDeps struct {
	Resolver  Resolver
	Submitter Submitter
	Poller    *Poller
	Fetcher   Fetcher
	OutputDir string
	Hub       *events.Hub
	Journal   Journal
	Logger    *slog.Logger
}

// Pipeline runs one job through its four stages in strict order: resolve,
// submit, poll, download. Each instance is reusable across jobs; all mutable
// state lives in the Job itself.
type Pipeline struct {
	deps   PipelineDeps
	logger *slog.Logger
}

// NewPipeline constructs a pipeline from its dependencies.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
	}
}

const recordTimeout = 10 * time.Second

// Run executes the job to completion. It never returns an error: every
// outcome, including cancellation, is recorded on the job and published to
// the event hub.
func (pl *Pipeline) Run(ctx context.Context, job *Job) {
	logger := pl.logger.With(
		logging.String(logging.FieldLane, job.Lane),
		logging.String(logging.FieldJobToken, job.Token),
	)
	defer pl.record(ctx, job, logger)

	pl.publishState(job, "resolving audio reference")

	if err := ctx.Err(); err != nil {
		job.fail(Wrap(ErrCancelled, "pipeline", "run", "cancelled", context.Cause(ctx)))
		pl.publishState(job, job.TerminalReason())
		return
	}

	assetRef, err := pl.deps.Resolver.Resolve(ctx, job.AudioRef)
	if err != nil {
		job.fail(Wrap(Classify(err), "resolver", "resolve", "", err))
		pl.publishState(job, job.TerminalReason())
		return
	}
	job.AssetRef = assetRef
	_ = job.advance(StateSubmitting)
	pl.publishState(job, "submitting generation request")

	jobID, err := pl.deps.Submitter.GenerateVideo(ctx, job.AvatarID, job.AssetRef, job.Options)
	if err != nil {
		// The resolved asset stays valid; resubmission is the caller's call.
		job.fail(Wrap(Classify(err), "submitter", "generate", "", err))
		pl.publishState(job, job.TerminalReason())
		return
	}
	job.JobID = jobID
	job.SubmittedAt = time.Now().UTC()
	_ = job.advance(StatePolling)
	logger.Info("job submitted", logging.String(logging.FieldJobID, job.JobID))
	pl.publishState(job, "waiting for remote processing")

	_ = pl.deps.Poller.Wait(ctx, job)
	pl.publishState(job, job.TerminalReason())

	if job.State == StateCompleted {
		pl.download(ctx, job, logger)
	}
}

// download fetches the finished artifact. Failure is an independently
// retryable side effect: it never reverts Completed.
func (pl *Pipeline) download(ctx context.Context, job *Job, logger *slog.Logger) {
	path, err := pl.deps.Fetcher.Fetch(ctx, job.ResultURL, pl.deps.OutputDir, job.BaseName(), job.JobID)
	if err != nil {
		job.DownloadErr = err
		logger.Warn("artifact download failed; video remains available remotely",
			logging.String(logging.FieldJobID, job.JobID),
			logging.Error(err),
		)
		pl.publish(events.Event{
			Type:      events.TypeDownload,
			Lane:      job.Lane,
			JobToken:  job.Token,
			JobID:     job.JobID,
			State:     string(job.State),
			ResultURL: job.ResultURL,
			Error:     err.Error(),
		})
		return
	}
	job.ArtifactPath = path
	pl.publish(events.Event{
		Type:      events.TypeDownload,
		Lane:      job.Lane,
		JobToken:  job.Token,
		JobID:     job.JobID,
		State:     string(job.State),
		ResultURL: job.ResultURL,
		Artifact:  path,
	})
}

func (pl *Pipeline) record(ctx context.Context, job *Job, logger *slog.Logger) {
	if pl.deps.Journal == nil {
		return
	}
	// Outcomes are journaled even when the job context is already gone.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := pl.deps.Journal.RecordOutcome(recordCtx, job); err != nil {
		logger.Error("failed to journal job outcome",
			logging.String(logging.FieldEventType, "journal_write_failed"),
			logging.String(logging.FieldErrorHint, "check state directory access"),
			logging.Error(err),
		)
	}
}

func (pl *Pipeline) publishState(job *Job, message string) {
	evt := events.Event{
		Type:     events.TypeState,
		Lane:     job.Lane,
		JobToken: job.Token,
		JobID:    job.JobID,
		State:    string(job.State),
		Message:  message,
	}
	if job.State.Terminal() {
		evt.ResultURL = job.ResultURL
		if job.Err != nil {
			evt.Error = job.Err.Error()
		}
	}
	pl.publish(evt)
}

func (pl *Pipeline) publish(evt events.Event) {
	if pl.deps.Hub != nil {
		pl.deps.Hub.Publish(evt)
	}
}
