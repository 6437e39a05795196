// Package jobs owns the lifecycle of one audio-to-video generation request.
//
// A Job moves strictly forward through ResolvingAsset, Submitting, and
// Polling into exactly one terminal state (Completed, Failed, or TimedOut);
// no stage is skipped and bounded retry re-enters only the current state.
// The Poller is the consolidated status state machine: transient failures are
// absorbed up to a per-kind budget with capped exponential backoff, while a
// separate wall-clock lifetime bounds the job overall. The Pipeline strings
// the four stages together (resolve, submit, poll, download) and publishes
// lifecycle events for the presentation collaborator.
//
// Treat this package as the single source of truth for lifecycle semantics;
// policy knobs live in PollPolicy, not scattered constants.
package jobs
