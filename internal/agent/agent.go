package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/logger"
)

const successMessage = "action processed successfully"

// configures an Agent
type Option func(*Agent)

// selects first-fragment or full-concatenation aggregate completions
func WithAggregateMode(mode llm.AggregateMode) Option {
	return func(a *Agent) {
		a.aggregate = mode
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.log = l
	}
}

// dispatches actions to registered handlers and holds the current editing context.
// One Agent serves one session; the context slot is last-writer-wins.
type Agent struct {
	name         string
	capabilities []Capability
	transport    llm.Completer
	aggregate    llm.AggregateMode
	log          *slog.Logger

	handlersMu sync.RWMutex
	handlers   map[ActionType]Handler

	contextMu sync.RWMutex
	editing   *EditingContext
}

// creates an agent with an empty handler table and no transport
func New(name string, capabilities []Capability, opts ...Option) *Agent {
	a := &Agent{
		name:         name,
		capabilities: slices.Clone(capabilities),
		aggregate:    llm.AggregateFirst,
		log:          logger.Default(),
		handlers:     make(map[ActionType]Handler),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.log = a.log.With("agent", name)

	return a
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Capabilities() []Capability {
	return slices.Clone(a.capabilities)
}

// registers h for t, replacing any previous handler
func (a *Agent) RegisterHandler(t ActionType, h Handler) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if h == nil {
		return fmt.Errorf("nil handler for %s", t)
	}

	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()

	a.handlers[t] = h

	return nil
}

// registered action types, sorted
func (a *Agent) Actions() []ActionType {
	a.handlersMu.RLock()
	defer a.handlersMu.RUnlock()

	types := make([]ActionType, 0, len(a.handlers))
	for t := range a.handlers {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

func (a *Agent) handler(t ActionType) (Handler, bool) {
	a.handlersMu.RLock()
	defer a.handlersMu.RUnlock()

	h, ok := a.handlers[t]

	return h, ok
}

// runs the handler for action and normalizes the outcome. Never returns an error:
// every failure becomes a Response with Success false.
func (a *Agent) ProcessAction(ctx context.Context, action Action) Response {
	h, ok := a.handler(action.Type)
	if !ok {
		a.log.Warn("no handler registered", "action", action.Type)

		return Response{
			Success: false,
			Message: noHandlerError(action.Type).Error(),
		}
	}

	result, err := a.invoke(ctx, action, h)
	if err != nil {
		a.log.Error("action failed", "action", action.Type, "error", err)

		return Response{
			Success: false,
			Message: err.Error(),
		}
	}

	response := Response{
		Success: true,
		Message: successMessage,
	}

	if result != nil {
		response.Changes = result.Changes
		response.Suggestions = result.Suggestions
	}

	return response
}

// calls h, turning panics and errors into *HandlerError
func (a *Agent) invoke(ctx context.Context, action Action, h Handler) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Action: action.Type, Err: fmt.Errorf("handler panicked: %v", r)}
		}
	}()

	result, err = h.Handle(ctx, action.Parameters)
	if err != nil {
		return nil, &HandlerError{Action: action.Type, Err: err}
	}

	return result, nil
}

// streams the edits of action. Stream handlers run incrementally; plain handlers
// run to completion and their changes are replayed. Errors end the sequence.
func (a *Agent) Stream(ctx context.Context, action Action) iter.Seq2[Edit, error] {
	return func(yield func(Edit, error) bool) {
		h, ok := a.handler(action.Type)
		if !ok {
			yield(Edit{}, noHandlerError(action.Type))
			return
		}

		sh, ok := h.(StreamHandler)
		if !ok {
			result, err := a.invoke(ctx, action, h)
			if err != nil {
				yield(Edit{}, err)
				return
			}

			if result == nil {
				return
			}

			for _, edit := range result.Changes {
				if !yield(edit, nil) {
					return
				}
			}

			return
		}

		// panics raised by the consumer inside yield are not ours to recover
		inYield, stopped := false, false

		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if inYield {
				panic(r)
			}

			a.log.Error("stream handler panicked", "action", action.Type, "panic", r)

			if !stopped {
				yield(Edit{}, &HandlerError{Action: action.Type, Err: fmt.Errorf("handler panicked: %v", r)})
			}
		}()

		for edit, err := range sh.Stream(ctx, action.Parameters) {
			if err != nil {
				edit, err = Edit{}, &HandlerError{Action: action.Type, Err: err}
			}

			inYield = true
			more := yield(edit, err)
			inYield = false

			if !more || err != nil {
				stopped = true
				return
			}
		}
	}
}

// replaces the editing context with a copy of ec
func (a *Agent) UpdateContext(ec EditingContext) {
	cp := ec.clone()

	a.contextMu.Lock()
	a.editing = &cp
	a.contextMu.Unlock()
}

// clears the editing context
func (a *Agent) ClearContext() {
	a.contextMu.Lock()
	a.editing = nil
	a.contextMu.Unlock()
}

// returns a copy of the current editing context
func (a *Agent) Context() (EditingContext, bool) {
	a.contextMu.RLock()
	defer a.contextMu.RUnlock()

	if a.editing == nil {
		return EditingContext{}, false
	}

	return a.editing.clone(), true
}

// returns the context or ErrContextMissing
func (a *Agent) requireContext() (EditingContext, error) {
	ec, ok := a.Context()
	if !ok {
		return EditingContext{}, ErrContextMissing
	}

	return ec, nil
}

// checks the transport; agents without one are always reachable
func (a *Agent) TestConnection(ctx context.Context) bool {
	if a.transport == nil {
		return true
	}

	return a.transport.TestConnection(ctx)
}

// releases the transport connection
func (a *Agent) Cleanup() {
	if a.transport != nil {
		a.transport.Cleanup()
	}
}

// reports whether err came from a handler rather than dispatch itself
func IsHandlerError(err error) bool {
	var herr *HandlerError
	return errors.As(err, &herr)
}
