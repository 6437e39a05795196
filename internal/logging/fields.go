package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldLane is the standardized structured logging key for lane names.
	FieldLane = "lane"
	// FieldJobToken is the standardized structured logging key for locally issued job tokens.
	FieldJobToken = "job_token"
	// FieldJobID is the standardized structured logging key for remote job identifiers.
	FieldJobID = "job_id"
	// FieldState is the standardized structured logging key for job lifecycle states.
	FieldState = "state"
	// FieldAttempt is the standardized structured logging key for transient-retry counters.
	FieldAttempt = "attempt"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
)
