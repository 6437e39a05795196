// Package store persists job outcomes and the avatar catalog snapshot in
// SQLite.
//
// The Store manages the database connection, schema initialization, and an
// exclusive file lock on the state directory so two processes never share one
// journal. Outcomes are an append-style history keyed by job token; the
// avatar snapshot is a single-row cache that survives restarts.
//
// The database is working state, not an archive. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package store
