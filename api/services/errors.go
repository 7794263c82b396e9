package services

import (
	"errors"
	"fmt"
)

// ErrUnknownContentType is returned before any model call when the requested
// content type has no prompt/schema pair.
var ErrUnknownContentType = errors.New("unknown content type")

// UpstreamError wraps a model gateway failure. The pipeline never retries;
// retry policy belongs to the caller.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model gateway call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// InvalidOutputError means the model responded but its payload failed JSON
// parsing or schema validation. Raw carries the offending payload for
// diagnostics.
type InvalidOutputError struct {
	Reason string
	Raw    string
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("model returned invalid output: %s", e.Reason)
}

// Error kinds for the report and export endpoints, suited to HTTP status
// mapping.
const (
	KindUnauthenticated    = "unauthenticated"
	KindInvalidArgument    = "invalid-argument"
	KindNotFound           = "not-found"
	KindFailedPrecondition = "failed-precondition"
	KindInternal           = "internal"
)

// ReportError is a categorized aggregation failure.
type ReportError struct {
	Kind    string
	Message string
}

func (e *ReportError) Error() string { return e.Message }
