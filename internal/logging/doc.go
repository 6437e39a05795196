// Package logging provides structured slog helpers shared across renderlane
// components.
//
// The library never constructs its own handlers; callers hand every component
// an externally built *slog.Logger and this package keeps the attribute shape
// consistent: typed attr constructors, standardized field-name constants for
// lanes and jobs, component-scoped child loggers, and a no-op logger for tests
// and wiring code that cannot fail.
//
// Prefer these helpers over raw slog key/value pairs so log lines stay
// queryable across components.
package logging
