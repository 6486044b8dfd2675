package agent

import (
	"context"
	"iter"
)

// what a handler hands back to the dispatcher
type Result struct {
	Changes     []Edit
	Suggestions []string
}

// fulfils one action type
type Handler interface {
	Handle(ctx context.Context, params Params) (*Result, error)
}

// a Handler that can also emit its edits incrementally
type StreamHandler interface {
	Handler
	Stream(ctx context.Context, params Params) iter.Seq2[Edit, error]
}

// adapts a plain function to Handler
type HandlerFunc func(ctx context.Context, params Params) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, params Params) (*Result, error) {
	return f(ctx, params)
}

// adapts an edit sequence to StreamHandler.
// Handle drains the sequence and collects every edit as a change.
type StreamHandlerFunc func(ctx context.Context, params Params) iter.Seq2[Edit, error]

func (f StreamHandlerFunc) Stream(ctx context.Context, params Params) iter.Seq2[Edit, error] {
	return f(ctx, params)
}

func (f StreamHandlerFunc) Handle(ctx context.Context, params Params) (*Result, error) {
	var changes []Edit

	for edit, err := range f(ctx, params) {
		if err != nil {
			return nil, err
		}

		changes = append(changes, edit)
	}

	return &Result{Changes: changes}, nil
}
