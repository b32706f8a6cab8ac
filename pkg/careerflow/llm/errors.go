package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse indicates the provider answered without any content.
var ErrEmptyResponse = errors.New("llm returned empty content")

// Error is returned by clients for failed completions.
type Error struct {
	Op        string
	Err       error
	Retryable bool
}

// NewError wraps err for operation op.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	return errors.As(err, &llmErr) && llmErr.Retryable
}
