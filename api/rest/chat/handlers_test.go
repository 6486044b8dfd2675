package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentcore "codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/sessions"
)

type fakeCompleter struct {
	mu        sync.Mutex
	fragments []string
	err       error
	calls     [][]llm.Message
}

func (f *fakeCompleter) StreamComplete(_ context.Context, messages []llm.Message) iter.Seq2[llm.Fragment, error] {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()

	return func(yield func(llm.Fragment, error) bool) {
		for _, text := range f.fragments {
			if !yield(llm.Fragment{Text: text, Kind: llm.KindText}, nil) {
				return
			}
		}

		if f.err != nil {
			yield(llm.Fragment{}, f.err)
		}
	}
}

func (f *fakeCompleter) Complete(context.Context, []llm.Message) (llm.Fragment, error) {
	return llm.Fragment{Text: strings.Join(f.fragments, "")}, f.err
}

func (f *fakeCompleter) CompleteFull(ctx context.Context, m []llm.Message) (llm.Fragment, error) {
	return f.Complete(ctx, m)
}

func (f *fakeCompleter) TestConnection(context.Context) bool { return f.err == nil }

func (f *fakeCompleter) Cleanup() {}

func (f *fakeCompleter) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return nil
	}

	return f.calls[len(f.calls)-1]
}

func newTestServer(t *testing.T, completer *fakeCompleter) (*gin.Engine, *sessions.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := sessions.NewManager(time.Minute, func(id string) (*agentcore.Agent, error) {
		return agentcore.NewLLMAgent("CodeAgent", completer, agentcore.AllCapabilities()), nil
	})
	t.Cleanup(manager.Close)

	router := gin.New()
	RegisterRoutes(router, manager)

	return router, manager
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

// decodes every "data: " line of an SSE body
func readEvents(t *testing.T, body string) []map[string]any {
	t.Helper()

	var events []map[string]any

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		data, ok := strings.CutPrefix(line, "data: ")
		require.True(t, ok, "unexpected line %q", line)

		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(data), &event))
		events = append(events, event)
	}

	return events
}

func TestChatStreamsChunks(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"Hel", "lo"}}
	router, manager := newTestServer(t, completer)

	w := postChat(t, router, `{"message":"hi","session_id":"s1","context":{"fileName":"a.py","content":"x = 1","language":"python","cursorPosition":[2,3]}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, true, events[0]["startNewMessage"])
	assert.Equal(t, map[string]any{"type": "chunk", "content": "Hel"}, events[1])
	assert.Equal(t, map[string]any{"type": "chunk", "content": "lo"}, events[2])
	assert.Equal(t, map[string]any{"type": "done"}, events[3])

	messages := completer.lastCall()
	require.Len(t, messages, 2)
	assert.Equal(t, llm.SystemMessage(systemPrompt), messages[0])
	assert.Equal(t, llm.UserMessage("hi"), messages[1])

	session, ok := manager.Lookup("s1")
	require.True(t, ok)

	ec, ok := session.Agent.Context()
	require.True(t, ok)
	assert.Equal(t, "a.py", ec.FilePath)
	assert.Equal(t, &agentcore.Cursor{Row: 2, Col: 3}, ec.CursorPosition)

	assert.Equal(t, []llm.Message{
		llm.UserMessage("hi"),
		{Role: llm.RoleAssistant, Content: "Hello"},
	}, session.History())
}

func TestChatForwardsHistory(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"ok"}}
	router, _ := newTestServer(t, completer)

	postChat(t, router, `{"message":"first","session_id":"h"}`)
	postChat(t, router, `{"message":"second","session_id":"h"}`)

	messages := completer.lastCall()
	require.Len(t, messages, 4)
	assert.Equal(t, llm.UserMessage("first"), messages[1])
	assert.Equal(t, llm.RoleAssistant, messages[2].Role)
	assert.Equal(t, llm.UserMessage("second"), messages[3])
}

func TestChatWelcome(t *testing.T) {
	completer := &fakeCompleter{}
	router, manager := newTestServer(t, completer)

	w := postChat(t, router, `{"message":"WELCOME_MESSAGE","isSystemMessage":true}`)

	require.Equal(t, http.StatusOK, w.Code)

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Contains(t, events[0]["text"], "Welcome to Code Agent v")
	assert.Equal(t, map[string]any{"done": true}, events[1])

	assert.Nil(t, completer.lastCall())
	assert.Equal(t, 0, manager.Len())
}

func TestChatWelcomeRequiresSystemFlag(t *testing.T) {
	completer := &fakeCompleter{fragments: []string{"sure"}}
	router, _ := newTestServer(t, completer)

	w := postChat(t, router, `{"message":"WELCOME_MESSAGE"}`)

	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, true, events[0]["startNewMessage"])
	assert.NotNil(t, completer.lastCall())
}

func TestChatEmptyMessage(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`} {
		w := postChat(t, router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestChatMalformedBody(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	w := postChat(t, router, `{"message":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStreamError(t *testing.T) {
	completer := &fakeCompleter{
		fragments: []string{"partial"},
		err:       &llm.RetryExhaustedError{Attempts: 3, Last: &llm.TransientError{StatusCode: 502}},
	}
	router, manager := newTestServer(t, completer)

	w := postChat(t, router, `{"message":"hi","session_id":"e"}`)

	require.Equal(t, http.StatusOK, w.Code)

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "partial", events[1]["content"])
	assert.NotEmpty(t, events[2]["error"])
	assert.NotContains(t, events[2], "type")

	session, ok := manager.Lookup("e")
	require.True(t, ok)
	assert.Empty(t, session.History())
}

func TestChatInvalidSession(t *testing.T) {
	router, _ := newTestServer(t, &fakeCompleter{})

	w := postChat(t, router, `{"message":"hi","session_id":"bad id!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileContextCursorFallback(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		cursor agentcore.Cursor
	}{
		{"pair", `[4,7]`, agentcore.Cursor{Row: 4, Col: 7}},
		{"missing", ``, agentcore.Cursor{}},
		{"not a list", `"top"`, agentcore.Cursor{}},
		{"wrong arity", `[1]`, agentcore.Cursor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := FileContext{FileName: "f.go", CursorPosition: json.RawMessage(tt.raw)}
			ec := fc.EditingContext()

			require.NotNil(t, ec.CursorPosition)
			assert.Equal(t, tt.cursor, *ec.CursorPosition)
			assert.Equal(t, "f.go", ec.FilePath)
		})
	}
}
