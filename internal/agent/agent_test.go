package agent

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/logger"
)

// implements llm.Completer for testing
type mockCompleter struct {
	fragments []string
	streamErr error

	completeFunc     func(ctx context.Context, messages []llm.Message) (llm.Fragment, error)
	completeFullFunc func(ctx context.Context, messages []llm.Message) (llm.Fragment, error)

	lastMessages []llm.Message
	yielded      int
	cleanups     int
	connected    bool
}

func (m *mockCompleter) StreamComplete(_ context.Context, messages []llm.Message) iter.Seq2[llm.Fragment, error] {
	m.lastMessages = messages

	return func(yield func(llm.Fragment, error) bool) {
		for _, text := range m.fragments {
			m.yielded++
			if !yield(llm.Fragment{Text: text, Kind: llm.KindText}, nil) {
				return
			}
		}

		if m.streamErr != nil {
			yield(llm.Fragment{}, m.streamErr)
		}
	}
}

func (m *mockCompleter) Complete(ctx context.Context, messages []llm.Message) (llm.Fragment, error) {
	m.lastMessages = messages

	if m.completeFunc != nil {
		return m.completeFunc(ctx, messages)
	}

	return llm.Fragment{Text: "first", Kind: llm.KindText}, nil
}

func (m *mockCompleter) CompleteFull(ctx context.Context, messages []llm.Message) (llm.Fragment, error) {
	m.lastMessages = messages

	if m.completeFullFunc != nil {
		return m.completeFullFunc(ctx, messages)
	}

	return llm.Fragment{Text: "full text", Kind: llm.KindText}, nil
}

func (m *mockCompleter) TestConnection(context.Context) bool {
	return m.connected
}

func (m *mockCompleter) Cleanup() {
	m.cleanups++
}

func newTestAgent(mock *mockCompleter, opts ...Option) *Agent {
	opts = append(opts, WithLogger(logger.Discard()))
	return NewLLMAgent("TestAgent", mock, AllCapabilities(), opts...)
}

func sampleContext() EditingContext {
	selected := "x := 1"

	return EditingContext{
		FilePath:       "main.go",
		Content:        "package main\n\nfunc main() {}\n",
		Language:       "go",
		CursorPosition: &Cursor{Row: 3, Col: 4},
		SelectedText:   &selected,
	}
}

func TestNewLLMAgentRegistersHandlers(t *testing.T) {
	a := newTestAgent(&mockCompleter{})

	assert.Equal(t, "TestAgent", a.Name())
	assert.Equal(t, AllCapabilities(), a.Capabilities())
	assert.Equal(t, []ActionType{ActionAnalyze, ActionGenerate, ActionStreamGenerate}, a.Actions())
}

func TestProcessActionUnregistered(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	resp := a.ProcessAction(context.Background(), NewAction("refactor_all", nil))

	assert.False(t, resp.Success)
	assert.Equal(t, "no handler for refactor_all", resp.Message)
	assert.Nil(t, resp.Changes)
	assert.Nil(t, resp.Suggestions)
}

func TestRegisterHandlerLastWins(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	require.NoError(t, a.RegisterHandler("custom", HandlerFunc(func(context.Context, Params) (*Result, error) {
		return &Result{Suggestions: []string{"one"}}, nil
	})))
	require.NoError(t, a.RegisterHandler("custom", HandlerFunc(func(context.Context, Params) (*Result, error) {
		return &Result{Suggestions: []string{"two"}}, nil
	})))

	resp := a.ProcessAction(context.Background(), NewAction("custom", nil))

	assert.True(t, resp.Success)
	assert.Equal(t, "action processed successfully", resp.Message)
	assert.Equal(t, []string{"two"}, resp.Suggestions)
}

func TestRegisterHandlerValidation(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	assert.Error(t, a.RegisterHandler("", HandlerFunc(nil)))
	assert.Error(t, a.RegisterHandler("Bad Name", HandlerFunc(nil)))
	assert.Error(t, a.RegisterHandler("ok_name", nil))
	assert.NoError(t, ActionType("ok_name").Validate())
}

func TestProcessActionHandlerError(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	require.NoError(t, a.RegisterHandler("fails", HandlerFunc(func(context.Context, Params) (*Result, error) {
		return nil, errors.New("boom")
	})))
	require.NoError(t, a.RegisterHandler("panics", HandlerFunc(func(context.Context, Params) (*Result, error) {
		panic("unexpected")
	})))

	resp := a.ProcessAction(context.Background(), NewAction("fails", nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Message)

	resp = a.ProcessAction(context.Background(), NewAction("panics", nil))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "unexpected")
}

func TestStreamRecoversHandlerPanic(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	require.NoError(t, a.RegisterHandler("panics", StreamHandlerFunc(func(context.Context, Params) iter.Seq2[Edit, error] {
		return func(yield func(Edit, error) bool) {
			if !yield(Insertion(AtOffset(0), "partial"), nil) {
				return
			}

			panic("kaboom")
		}
	})))

	var edits []Edit
	var streamErr error

	assert.NotPanics(t, func() {
		for edit, err := range a.Stream(context.Background(), NewAction("panics", nil)) {
			if err != nil {
				streamErr = err
				break
			}

			edits = append(edits, edit)
		}
	})

	require.Len(t, edits, 1)
	require.Error(t, streamErr)
	assert.True(t, IsHandlerError(streamErr))
	assert.Equal(t, "handler panicked: kaboom", streamErr.Error())

	resp := a.ProcessAction(context.Background(), NewAction("panics", nil))
	assert.False(t, resp.Success)
	assert.Equal(t, "handler panicked: kaboom", resp.Message)
}

func TestStreamHandlerPanicAfterConsumerStops(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	require.NoError(t, a.RegisterHandler("ignores_stop", StreamHandlerFunc(func(context.Context, Params) iter.Seq2[Edit, error] {
		return func(yield func(Edit, error) bool) {
			yield(Insertion(AtOffset(0), "x"), nil)
			panic("after stop")
		}
	})))

	assert.NotPanics(t, func() {
		for range a.Stream(context.Background(), NewAction("ignores_stop", nil)) {
			break
		}
	})
}

func TestStreamDoesNotSwallowConsumerPanic(t *testing.T) {
	a := New("bare", nil, WithLogger(logger.Discard()))

	require.NoError(t, a.RegisterHandler("streams", StreamHandlerFunc(func(context.Context, Params) iter.Seq2[Edit, error] {
		return func(yield func(Edit, error) bool) {
			yield(Insertion(AtOffset(0), "x"), nil)
		}
	})))

	assert.PanicsWithValue(t, "consumer", func() {
		for range a.Stream(context.Background(), NewAction("streams", nil)) {
			panic("consumer")
		}
	})
}

func TestGenerateRequiresContext(t *testing.T) {
	mock := &mockCompleter{}
	a := newTestAgent(mock)

	for _, actionType := range []ActionType{ActionGenerate, ActionAnalyze, ActionStreamGenerate} {
		resp := a.ProcessAction(context.Background(), NewAction(actionType, Params{"prompt": "hi"}))

		assert.False(t, resp.Success, actionType)
		assert.Equal(t, ErrContextMissing.Error(), resp.Message, actionType)
	}

	assert.Nil(t, mock.lastMessages)
}

func TestGenerateInsertsAtCursor(t *testing.T) {
	mock := &mockCompleter{}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	resp := a.ProcessAction(context.Background(), NewAction(ActionGenerate, Params{
		"prompt":        "write a test",
		"system_prompt": "be terse",
	}))

	require.True(t, resp.Success, resp.Message)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, Insertion(AtCursor(&Cursor{Row: 3, Col: 4}), "first"), resp.Changes[0])
	assert.Nil(t, resp.Suggestions)

	assert.Equal(t, []llm.Message{
		llm.SystemMessage("be terse"),
		llm.UserMessage("write a test"),
	}, mock.lastMessages)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"message": "action processed successfully",
		"changes": [{"type": "insertion", "position": [3, 4], "content": "first"}]
	}`, string(raw))
}

func TestGenerateDefaultsAndAggregateMode(t *testing.T) {
	mock := &mockCompleter{}
	a := newTestAgent(mock, WithAggregateMode(llm.AggregateFull))
	a.UpdateContext(EditingContext{FilePath: "a.py"})

	resp := a.ProcessAction(context.Background(), NewAction(ActionGenerate, nil))

	require.True(t, resp.Success)
	assert.Equal(t, "full text", resp.Changes[0].Content)
	assert.False(t, resp.Changes[0].Position.IsSet())
	assert.Equal(t, []llm.Message{
		llm.SystemMessage(DefaultSystemPrompt),
		llm.UserMessage(""),
	}, mock.lastMessages)
}

func TestGeneratePropagatesTransportError(t *testing.T) {
	mock := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message) (llm.Fragment, error) {
			return llm.Fragment{}, &llm.UpstreamError{StatusCode: 404, Body: "missing"}
		},
	}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	resp := a.ProcessAction(context.Background(), NewAction(ActionGenerate, Params{"prompt": "x"}))

	assert.False(t, resp.Success)
	assert.Equal(t, "API request failed with status 404: missing", resp.Message)
}

func TestAnalyzeReturnsSuggestion(t *testing.T) {
	mock := &mockCompleter{}
	a := newTestAgent(mock)
	ec := sampleContext()
	a.UpdateContext(ec)

	resp := a.ProcessAction(context.Background(), NewAction(ActionAnalyze, nil))

	require.True(t, resp.Success)
	assert.Nil(t, resp.Changes)
	assert.Equal(t, []string{"first"}, resp.Suggestions)
	assert.Equal(t, []llm.Message{
		llm.SystemMessage("You are a code analysis expert."),
		llm.UserMessage("Analyze this code and provide suggestions:\n\n" + ec.Content),
	}, mock.lastMessages)
}

func TestStreamGenerateOffsets(t *testing.T) {
	mock := &mockCompleter{fragments: []string{"Hel", "", "lo", "wörld"}}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	var edits []Edit
	for edit, err := range a.Stream(context.Background(), NewAction(ActionStreamGenerate, Params{"prompt": "hi"})) {
		require.NoError(t, err)
		edits = append(edits, edit)
	}

	assert.Equal(t, []Edit{
		Insertion(AtOffset(0), "Hel"),
		Insertion(AtOffset(3), "lo"),
		Insertion(AtOffset(5), "wörld"),
	}, edits)

	resp := a.ProcessAction(context.Background(), NewAction(ActionStreamGenerate, Params{"prompt": "hi"}))
	require.True(t, resp.Success)
	assert.Equal(t, edits, resp.Changes)
}

func TestStreamGenerateIncludesHistory(t *testing.T) {
	mock := &mockCompleter{fragments: []string{"ok"}}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	history := []any{
		map[string]any{"role": "system", "content": "ignored"},
		map[string]any{"role": "user", "content": "q1"},
		map[string]any{"role": "assistant", "content": "a1"},
		map[string]any{"role": "user", "content": "q2"},
		map[string]any{"role": "assistant", "content": "a2"},
		map[string]any{"role": "user", "content": "q3"},
	}

	for _, err := range a.Stream(context.Background(), NewAction(ActionStreamGenerate, Params{"prompt": "q4", "history": history})) {
		require.NoError(t, err)
	}

	assert.Equal(t, []llm.Message{
		llm.SystemMessage(DefaultSystemPrompt),
		{Role: llm.RoleAssistant, Content: "a1"},
		llm.UserMessage("q2"),
		{Role: llm.RoleAssistant, Content: "a2"},
		llm.UserMessage("q3"),
		llm.UserMessage("q4"),
	}, mock.lastMessages)
}

func TestStreamGenerateError(t *testing.T) {
	mock := &mockCompleter{fragments: []string{"partial"}, streamErr: &llm.RetryExhaustedError{Attempts: 3}}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	var (
		edits []Edit
		last  error
	)

	for edit, err := range a.Stream(context.Background(), NewAction(ActionStreamGenerate, nil)) {
		if err != nil {
			last = err
			break
		}

		edits = append(edits, edit)
	}

	assert.Len(t, edits, 1)
	assert.True(t, IsHandlerError(last))

	var exhausted *llm.RetryExhaustedError
	assert.ErrorAs(t, last, &exhausted)

	resp := a.ProcessAction(context.Background(), NewAction(ActionStreamGenerate, nil))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "failed after 3 attempts")
}

func TestStreamStopsWhenConsumerBreaks(t *testing.T) {
	mock := &mockCompleter{fragments: []string{"a", "b", "c"}}
	a := newTestAgent(mock)
	a.UpdateContext(sampleContext())

	for range a.Stream(context.Background(), NewAction(ActionStreamGenerate, nil)) {
		break
	}

	assert.Equal(t, 1, mock.yielded)
}

func TestStreamReplaysPlainHandler(t *testing.T) {
	a := newTestAgent(&mockCompleter{})
	a.UpdateContext(sampleContext())

	var edits []Edit
	for edit, err := range a.Stream(context.Background(), NewAction(ActionGenerate, nil)) {
		require.NoError(t, err)
		edits = append(edits, edit)
	}

	require.Len(t, edits, 1)
	assert.Equal(t, "first", edits[0].Content)

	for _, err := range a.Stream(context.Background(), NewAction("unknown", nil)) {
		assert.ErrorIs(t, err, ErrNoHandler)
	}
}

func TestUpdateContextCopies(t *testing.T) {
	a := newTestAgent(&mockCompleter{})

	_, ok := a.Context()
	assert.False(t, ok)

	ec := sampleContext()
	a.UpdateContext(ec)

	ec.CursorPosition.Row = 99
	*ec.SelectedText = "changed"
	ec.Content = "changed"

	got, ok := a.Context()
	require.True(t, ok)
	assert.Equal(t, 3, got.CursorPosition.Row)
	assert.Equal(t, "x := 1", *got.SelectedText)
	assert.Equal(t, "package main\n\nfunc main() {}\n", got.Content)

	got.CursorPosition.Col = 42
	again, _ := a.Context()
	assert.Equal(t, 4, again.CursorPosition.Col)

	a.ClearContext()
	_, ok = a.Context()
	assert.False(t, ok)
}

func TestTestConnectionAndCleanup(t *testing.T) {
	mock := &mockCompleter{connected: true}
	a := newTestAgent(mock)

	assert.True(t, a.TestConnection(context.Background()))

	a.Cleanup()
	a.Cleanup()
	assert.Equal(t, 2, mock.cleanups)

	bare := New("bare", nil, WithLogger(logger.Discard()))
	assert.True(t, bare.TestConnection(context.Background()))
	bare.Cleanup()
}
