// Package events publishes job lifecycle events to the presentation
// collaborator.
//
// The Hub is a bounded in-memory fan-out buffer: the pipeline publishes one
// event per state transition, per transient retry, and per download outcome;
// a front-end fetches them by sequence number, optionally blocking for new
// ones. Sinks receive every event synchronously for persistence.
package events
