package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	sseDataPrefix = "data: "
	sseDoneMarker = "[DONE]"

	maxLineSize = 1024 * 1024
)

var errUnexpectedShape = errors.New("unexpected payload shape")

// result of decoding one stream line
type lineEvent struct {
	text string
	done bool
}

// decodes a single SSE line into content text.
// lines without the data prefix decode to an empty event. A non-nil error is always a *DecodeWarning.
func decodeLine(raw string) (lineEvent, error) {
	line := strings.TrimSpace(raw)
	if !strings.HasPrefix(line, sseDataPrefix) {
		return lineEvent{}, nil
	}

	data := strings.TrimPrefix(line, sseDataPrefix)
	if data == sseDoneMarker {
		return lineEvent{done: true}, nil
	}

	text, err := decodePayload([]byte(data))
	if err != nil {
		return lineEvent{}, &DecodeWarning{Line: data, Err: err}
	}

	return lineEvent{text: text}, nil
}

// extracts content from either the OpenAI-style or the output.text payload shape
func decodePayload(data []byte) (string, error) {
	var payload chunkPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", err
	}

	switch {
	case payload.Choices != nil:
		if len(payload.Choices) == 0 {
			return "", nil
		}

		choice := payload.Choices[0]
		if choice.Delta != nil {
			return choice.Delta.Content, nil
		}

		if choice.Message != nil {
			return choice.Message.Content, nil
		}

		return "", nil

	case payload.Output != nil:
		return payload.Output.Text, nil

	default:
		return "", errUnexpectedShape
	}
}

// returns a scanner sized for long SSE lines
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return scanner
}
