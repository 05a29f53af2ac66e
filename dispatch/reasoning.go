package dispatch

import (
	"encoding/json"

	"github.com/quantforge/llmcore/llm"
)

var reasoningKeyPaths = []string{
	"choices.0.message.reasoning_content",
	"choices.0.reasoning_content",
	"reasoning_content",
}

var citationsKeyPaths = []string{"citations", "choices.0.message.citations"}

// responseToMap round-trips a typed ChatResponse through JSON so callers
// can inspect provider-specific fields the typed struct doesn't declare,
// without touching the provider adapters that produced it.
func responseToMap(resp *llm.ChatResponse) map[string]any {
	raw := map[string]any{}
	data, err := json.Marshal(resp)
	if err != nil {
		return raw
	}
	_ = json.Unmarshal(data, &raw)
	return raw
}

// extractReasoningContent pulls the reasoner provider's hidden
// chain-of-thought text out of the response, if present.
func extractReasoningContent(resp *llm.ChatResponse) string {
	if len(resp.Choices) > 0 && resp.Choices[0].Message.ReasoningContent != "" {
		return resp.Choices[0].Message.ReasoningContent
	}

	raw := responseToMap(resp)
	for _, path := range reasoningKeyPaths {
		if v, ok := lookupPath(raw, path); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// extractCitations pulls the research provider's source list out of the
// response, if present.
func extractCitations(resp *llm.ChatResponse) []string {
	raw := responseToMap(resp)
	for _, path := range citationsKeyPaths {
		v, ok := lookupPath(raw, path)
		if !ok {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
