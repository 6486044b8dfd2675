package llm

import (
	"errors"
	"fmt"
)

var (
	// returned when an open stream delivers nothing within the idle timeout
	ErrIdleTimeout = errors.New("stream idle timeout")

	// cause attached to an attempt that exceeded its deadline
	ErrAttemptTimeout = errors.New("request timed out")
)

// invalid or missing transport settings; never retried
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid llm config: %s %s", e.Field, e.Reason)
}

// non-retryable HTTP status from the upstream service
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// a failure that is worth another attempt (retryable status, timeout, connection error)
type TransientError struct {
	StatusCode int // 0 for network-level failures
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient upstream status %d", e.StatusCode)
	}

	return fmt.Sprintf("transient request failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// every attempt failed transiently
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts. last error: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// a stream line that could not be decoded; logged and skipped
type DecodeWarning struct {
	Line string
	Err  error
}

func (e *DecodeWarning) Error() string {
	return fmt.Sprintf("skipping undecodable stream line %q: %v", e.Line, e.Err)
}

func (e *DecodeWarning) Unwrap() error {
	return e.Err
}

// returned by aggregate completions when the stream carried no content
var ErrEmptyCompletion = errors.New("no content in response")
