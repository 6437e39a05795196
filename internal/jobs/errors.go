package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"renderlane/internal/assets"
	"renderlane/internal/heygen"
)

// Sentinel markers for the four failure classes callers act on. Every
// terminal error is tagged with exactly one of them.
var (
	// ErrInput marks bad user input: missing file, unsupported format,
	// invalid avatar. Fatal to the job, never retried.
	ErrInput = errors.New("input error")
	// ErrTransient marks network failures, 5xx responses, and malformed
	// bodies. Retried with bounded backoff by the poller; retryable by
	// resubmission elsewhere.
	ErrTransient = errors.New("transient remote error")
	// ErrRejected marks a definitive failure the service reported with a
	// reason. Fatal, surfaced verbatim.
	ErrRejected = errors.New("remote rejection")
	// ErrExhausted marks an orchestration-side give-up: polling budget spent or
	// job lifetime exceeded. Distinguished from ErrRejected so the caller
	// can offer "try again" instead of "check your input".
	ErrExhausted = errors.New("exhausted")
	// ErrCancelled marks a caller-requested cancellation.
	ErrCancelled = errors.New("cancelled")
)

// Wrap builds an error that includes component context while tagging it with
// the provided class marker for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an arbitrary pipeline error to its class marker.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInput), errors.Is(err, ErrRejected),
		errors.Is(err, ErrExhausted), errors.Is(err, ErrCancelled),
		errors.Is(err, ErrTransient):
		for _, marker := range []error{ErrInput, ErrRejected, ErrExhausted, ErrCancelled, ErrTransient} {
			if errors.Is(err, marker) {
				return marker
			}
		}
		return ErrTransient
	case errors.Is(err, assets.ErrNotFound), errors.Is(err, assets.ErrUnsupportedFormat):
		return ErrInput
	case errors.Is(err, assets.ErrUpload):
		return ErrTransient
	case errors.Is(err, context.Canceled):
		return ErrCancelled
	case heygen.IsServerError(err), heygen.IsMalformed(err):
		return ErrTransient
	case heygen.IsAPIError(err):
		return ErrRejected
	default:
		return ErrTransient
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
