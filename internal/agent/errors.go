package agent

import (
	"errors"
	"fmt"
)

var (
	// returned by handlers that need an editing context before one was set
	ErrContextMissing = errors.New("no context provided")

	// returned by Stream for action types without a handler
	ErrNoHandler = errors.New("no handler")
)

// a failure raised inside a registered handler
type HandlerError struct {
	Action ActionType
	Err    error
}

// the handler's own error text, unchanged
func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func noHandlerError(t ActionType) error {
	return fmt.Errorf("%w for %s", ErrNoHandler, t)
}
