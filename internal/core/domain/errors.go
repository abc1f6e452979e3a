package domain

import (
	"errors"
	"fmt"
)

// StartError is returned by the start path and maps one-to-one onto the
// failure reason broadcast to observers.
type StartError struct {
	Reason FailureReason
	Err    error
}

func (e *StartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("soft ap start: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("soft ap start: %s", e.Reason)
}

func (e *StartError) Unwrap() error { return e.Err }

// NewStartError wraps err under the given failure reason.
func NewStartError(reason FailureReason, err error) *StartError {
	return &StartError{Reason: reason, Err: err}
}

// StartFailureReason extracts the failure reason from err, defaulting
// to FailureGeneral for errors the start path did not classify.
func StartFailureReason(err error) FailureReason {
	if err == nil {
		return FailureNone
	}
	var se *StartError
	if errors.As(err, &se) {
		return se.Reason
	}
	return FailureGeneral
}
