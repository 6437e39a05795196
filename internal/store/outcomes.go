package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renderlane/internal/jobs"
)

// Outcome is the persisted record of one job's run.
type Outcome struct {
	Token         string
	Lane          string
	JobID         string
	AvatarID      string
	AudioRef      string
	State         jobs.State
	ResultURL     string
	Error         string
	ArtifactPath  string
	DownloadError string
	AttemptCount  int
	CreatedAt     time.Time
	SubmittedAt   time.Time
	FinishedAt    time.Time
	RecordedAt    time.Time
}

// ErrNotFound indicates no outcome exists for the given token.
var ErrNotFound = errors.New("outcome not found")

// RecordOutcome upserts the journal row for the job. Repeated records for the
// same token overwrite the previous row; the download result lands in a
// second record after the terminal state.
func (s *Store) RecordOutcome(ctx context.Context, job *jobs.Job) error {
	if job == nil {
		return errors.New("nil job")
	}
	audioRef := ""
	if job.AudioRef != nil {
		audioRef = job.AudioRef.Describe()
	}
	jobErr := ""
	if job.Err != nil {
		jobErr = job.Err.Error()
	}
	downloadErr := ""
	if job.DownloadErr != nil {
		downloadErr = job.DownloadErr.Error()
	}

	const query = `
INSERT INTO job_outcomes (
    token, lane, job_id, avatar_id, audio_ref, state,
    result_url, error, artifact_path, download_error, attempt_count,
    created_at, submitted_at, finished_at, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(token) DO UPDATE SET
    job_id = excluded.job_id,
    state = excluded.state,
    result_url = excluded.result_url,
    error = excluded.error,
    artifact_path = excluded.artifact_path,
    download_error = excluded.download_error,
    attempt_count = excluded.attempt_count,
    submitted_at = excluded.submitted_at,
    finished_at = excluded.finished_at,
    recorded_at = excluded.recorded_at`

	err := s.execWithRetry(ctx, query,
		job.Token, job.Lane, job.JobID, job.AvatarID, audioRef, string(job.State),
		job.ResultURL, jobErr, job.ArtifactPath, downloadErr, job.AttemptCount,
		formatTime(job.CreatedAt), formatTime(job.SubmittedAt), formatTime(job.FinishedAt),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// OutcomeByToken loads one journal row.
func (s *Store) OutcomeByToken(ctx context.Context, token string) (*Outcome, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, selectOutcome+" WHERE token = ?", token)
	out, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	if err != nil {
		return nil, fmt.Errorf("load outcome: %w", err)
	}
	return out, nil
}

// ListOutcomes returns the most recently recorded outcomes, newest first.
func (s *Store) ListOutcomes(ctx context.Context, limit int) ([]*Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, selectOutcome+" ORDER BY recorded_at DESC, token LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []*Outcome
	for rows.Next() {
		out, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

const selectOutcome = `
SELECT token, lane, job_id, avatar_id, audio_ref, state,
       result_url, error, artifact_path, download_error, attempt_count,
       created_at, submitted_at, finished_at, recorded_at
FROM job_outcomes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row rowScanner) (*Outcome, error) {
	var (
		out                                    Outcome
		state                                  string
		created, submitted, finished, recorded string
	)
	err := row.Scan(
		&out.Token, &out.Lane, &out.JobID, &out.AvatarID, &out.AudioRef, &state,
		&out.ResultURL, &out.Error, &out.ArtifactPath, &out.DownloadError, &out.AttemptCount,
		&created, &submitted, &finished, &recorded,
	)
	if err != nil {
		return nil, err
	}
	out.State = jobs.State(state)
	out.CreatedAt = parseTime(created)
	out.SubmittedAt = parseTime(submitted)
	out.FinishedAt = parseTime(finished)
	out.RecordedAt = parseTime(recorded)
	return &out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
