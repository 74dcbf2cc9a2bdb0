package companion

import (
	"errors"
	"fmt"
)

// ErrCompanionRequestFailed is wrapped by every failed chat request. It is
// never fatal: the round carries on without that line of commentary.
var ErrCompanionRequestFailed = errors.New("companion request failed")

// Failure classifies a failed chat request
type Failure string

const (
	FailureTimeout   Failure = "timeout"
	FailureTransport Failure = "transport"
	FailureStatus    Failure = "status"
	FailureMalformed Failure = "malformed"
	FailurePrompt    Failure = "prompt"
)

// RequestFailedError describes a chat request that produced no commentary
type RequestFailedError struct {
	Failure    Failure
	Persona    string
	EventID    string
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	msg := fmt.Sprintf("companion request failed (%s)", e.Failure)
	if e.Persona != "" {
		msg += " for " + e.Persona
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause
func (e *RequestFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompanionRequestFailed}
	}
	return []error{ErrCompanionRequestFailed, e.Err}
}

// asRequestFailed converts err into a *RequestFailedError, keeping an
// existing classification.
func asRequestFailed(err error, fallback Failure) *RequestFailedError {
	var rfe *RequestFailedError
	if errors.As(err, &rfe) {
		out := *rfe
		return &out
	}
	return &RequestFailedError{Failure: fallback, Err: err}
}
