// Package catalog maintains an in-memory snapshot of the avatar ids known to
// the remote account.
//
// The snapshot is replaced atomically on refresh; readers never block on a
// refresh in flight. Concurrent refreshes collapse into a single upstream
// call, and an optional persister seeds the snapshot across restarts. A cron
// schedule can keep the snapshot current in the background.
package catalog
