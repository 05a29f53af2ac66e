package sanitizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// cl100kEncoding names the encoding shared by the chat-completion-style models this
// core talks to; providers not tokenized by tiktoken still get a
// reasonable estimate from it.
const cl100kEncoding = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func getEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding(cl100kEncoding)
	})
	return encoding, encodingErr
}

// EstimateTokens counts text's tokens using the cl100k_base encoding,
// falling back to a 4-chars-per-token heuristic if the encoder can't be
// loaded.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getEncoding()
	if err != nil {
		return len(text)/4 + 1
	}
	return len(enc.Encode(text, nil, nil))
}

// MessageContent is the subset of a chat message EstimateMessageTokens
// needs; it mirrors llm.Message's Role/Content without importing the llm
// package, keeping sanitizer's dependency graph one-directional.
type MessageContent struct {
	Role    string
	Content string
}

// EstimateMessageTokens sums per-message token counts plus the fixed
// per-message and per-conversation overhead tiktoken-tokenized chat
// payloads carry.
func EstimateMessageTokens(messages []MessageContent) int {
	total := 3
	for _, m := range messages {
		total += 4 + EstimateTokens(m.Role) + EstimateTokens(m.Content)
	}
	return total
}
