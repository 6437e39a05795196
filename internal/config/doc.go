// Package config defines the renderlane configuration surface.
//
// Configuration covers the per-lane credential/proxy pairs, output and state
// directories, remote endpoint overrides, poller tuning, and catalog refresh
// scheduling. The persisted form is TOML; embedding applications may also
// build a Config directly and hand it to lanes.NewScheduler.
//
// Load applies defaults, expands paths, normalizes values, and validates, so
// a Config obtained from Load is always usable as-is.
package config
