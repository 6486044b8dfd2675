package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// names a handler in the agent's dispatch table
type ActionType string

const (
	ActionGenerate           ActionType = "generate"
	ActionAnalyze            ActionType = "analyze"
	ActionStreamGenerate     ActionType = "stream_generate"
	ActionGenerateCompletion ActionType = "generate_completion"
)

// custom action names must be snake_case
var actionTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reports whether t is one of the built-in actions
func (t ActionType) Known() bool {
	switch t {
	case ActionGenerate, ActionAnalyze, ActionStreamGenerate, ActionGenerateCompletion:
		return true
	default:
		return false
	}
}

// checks that a custom action name is usable as a dispatch key
func (t ActionType) Validate() error {
	if t.Known() {
		return nil
	}

	if !actionTypeRegex.MatchString(string(t)) {
		return fmt.Errorf("invalid action type %q", t)
	}

	return nil
}

// declared, not enforced
type Capability string

const (
	CapabilityCompletion    Capability = "code_completion"
	CapabilityReview        Capability = "code_review"
	CapabilityRefactor      Capability = "refactoring"
	CapabilityDocumentation Capability = "documentation"
	CapabilityTesting       Capability = "testing"
)

// every capability, in declaration order
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityCompletion,
		CapabilityReview,
		CapabilityRefactor,
		CapabilityDocumentation,
		CapabilityTesting,
	}
}

// handler-specific arguments
type Params map[string]any

// returns the string at key, or fallback when the key is absent
func (p Params) String(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

// returns the integer at key, accepting JSON numbers
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}

	return fallback
}

// returns the float at key, accepting JSON numbers
func (p Params) Float(key string, fallback float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}

	return fallback
}

// a request for one handler
type Action struct {
	Type       ActionType `json:"action_type"`
	Parameters Params     `json:"parameters"`
	IssuedAt   time.Time  `json:"timestamp"`
}

// builds an action stamped with the current time
func NewAction(actionType ActionType, params Params) Action {
	if params == nil {
		params = Params{}
	}

	return Action{
		Type:       actionType,
		Parameters: params,
		IssuedAt:   time.Now(),
	}
}

// uniform outcome of dispatching one action
type Response struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Changes     []Edit   `json:"changes,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

const EditInsertion = "insertion"

// a single change to apply in the editor
type Edit struct {
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Content  string   `json:"content"`
}

// builds an insertion edit
func Insertion(pos Position, content string) Edit {
	return Edit{Type: EditInsertion, Position: pos, Content: content}
}

// zero-based row and column in the editor buffer
type Cursor struct {
	Row int
	Col int
}

// encodes as a [row, col] pair
func (c Cursor) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *Cursor) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("cursor must be a [row, col] array: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("cursor must have 2 elements, got %d", len(pair))
	}

	c.Row, c.Col = pair[0], pair[1]

	return nil
}

// either a cursor, a character offset or unset.
// Encodes as [row, col], a number or null respectively.
type Position struct {
	cursor *Cursor
	offset *int
}

// position at a cursor; nil yields an unset position
func AtCursor(c *Cursor) Position {
	if c == nil {
		return Position{}
	}

	cp := *c

	return Position{cursor: &cp}
}

// position at a character offset
func AtOffset(n int) Position {
	return Position{offset: &n}
}

func (p Position) Cursor() (Cursor, bool) {
	if p.cursor == nil {
		return Cursor{}, false
	}

	return *p.cursor, true
}

func (p Position) Offset() (int, bool) {
	if p.offset == nil {
		return 0, false
	}

	return *p.offset, true
}

func (p Position) IsSet() bool {
	return p.cursor != nil || p.offset != nil
}

func (p Position) MarshalJSON() ([]byte, error) {
	switch {
	case p.cursor != nil:
		return json.Marshal(p.cursor)
	case p.offset != nil:
		return json.Marshal(*p.offset)
	default:
		return []byte("null"), nil
	}
}

func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = Position{}

	switch {
	case bytes.Equal(data, []byte("null")):
		return nil

	case len(data) > 0 && data[0] == '[':
		var c Cursor
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}

		p.cursor = &c

		return nil

	default:
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("position must be null, an offset or [row, col]: %w", err)
		}

		p.offset = &n

		return nil
	}
}

// the file currently being edited
type EditingContext struct {
	FilePath       string  `json:"file_path"`
	Content        string  `json:"content"`
	Language       string  `json:"language"`
	CursorPosition *Cursor `json:"cursor_position,omitempty"`
	SelectedText   *string `json:"selected_text,omitempty"`
}

// deep copy; the agent never aliases caller memory
func (c EditingContext) clone() EditingContext {
	out := c

	if c.CursorPosition != nil {
		cursor := *c.CursorPosition
		out.CursorPosition = &cursor
	}

	if c.SelectedText != nil {
		text := *c.SelectedText
		out.SelectedText = &text
	}

	return out
}
