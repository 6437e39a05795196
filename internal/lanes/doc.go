// Package lanes owns the credentialed execution lanes and schedules job
// pipelines onto them.
//
// Each lane wraps one account's API key and optional proxy; its jobs run as
// independent goroutines sharing nothing but the lane's read-only client.
// Job creation is fire-and-forget: the caller gets the job token back
// immediately and observes progress through the event hub or the journal.
// Lanes track their active jobs so callers can ask whether any work is still
// running, and support per-job cancellation and a graceful drain on shutdown.
package lanes
