package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// per-message framing overhead of the chat format
const messageOverhead = 4

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// returns the cl100k_base tokenizer
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})

	return codec, codecErr
}

// approximate token count for text, 0 if the codec is unavailable
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	c, err := getCodec()
	if err != nil {
		return 0
	}

	ids, _, err := c.Encode(text)
	if err != nil {
		return 0
	}

	return len(ids)
}

// approximate prompt size of a chat request
func EstimateMessages(messages []Message) int {
	total := 0

	for _, m := range messages {
		total += messageOverhead + EstimateTokens(string(m.Role)) + EstimateTokens(m.Content)
	}

	return total
}
