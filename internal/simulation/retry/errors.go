package retry

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExhaustedRetries is matched by every ExhaustedRetriesError.
	ErrExhaustedRetries = errors.New("retries exhausted")

	// ErrFatalCall is matched by every FatalCallError.
	ErrFatalCall = errors.New("fatal call error")

	// ErrDeadlineTooClose marks a call refused because the caller's deadline
	// would pass before it could start. It classifies as cancellation.
	ErrDeadlineTooClose = errors.New("caller deadline too close")
)

// StatusError is the machine-readable failure an external adapter returns.
// Code follows HTTP semantics; Status carries vendor specific values such
// as "overloaded".
type StatusError struct {
	Code       int
	Status     string
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("remote status %d (%s): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("remote status %d: %s", e.Code, e.Message)
}

// ResponseParseError reports a successful round trip with an unusable payload.
type ResponseParseError struct {
	Body string
	Err  error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parse response: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// ExhaustedRetriesError is returned once every attempt failed with a
// retryable error.
type ExhaustedRetriesError struct {
	Attempts int
	Kind     ErrorKind
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("failed after %d attempts (%s): %v", e.Attempts, e.Kind, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() []error {
	return []error{ErrExhaustedRetries, e.Last}
}

// FatalCallError is returned immediately for a non-retryable error.
type FatalCallError struct {
	Attempts int
	Kind     ErrorKind
	Err      error
}

func (e *FatalCallError) Error() string {
	return fmt.Sprintf("fatal %s error on attempt %d: %v", e.Kind, e.Attempts, e.Err)
}

func (e *FatalCallError) Unwrap() []error {
	return []error{ErrFatalCall, e.Err}
}

// AttemptsOf reports how many attempts a terminal executor error consumed.
func AttemptsOf(err error) int {
	var exhausted *ExhaustedRetriesError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	var fatal *FatalCallError
	if errors.As(err, &fatal) {
		return fatal.Attempts
	}
	return 0
}
