package dispatch

import (
	llmpkg "github.com/quantforge/llmcore/llm"
)

// providerRates are per-million-token fallback prices, used only when a
// provider response carries no cost field of its own.
type providerRates struct {
	ChatInputPerMTok       float64
	ChatOutputPerMTok      float64
	ReasoningInputPerMTok  float64
	ReasoningOutputPerMTok float64
}

var fallbackRates = map[string]providerRates{
	"reasoner": {
		ChatInputPerMTok:       0.14,
		ChatOutputPerMTok:      0.28,
		ReasoningInputPerMTok:  0.55,
		ReasoningOutputPerMTok: 2.19,
	},
}

// EstimateCost computes a fallback USD cost for a response when the
// provider itself did not report one, using reasoning-mode rates whenever
// reasoningMode signals thinking/extended mode.
func EstimateCost(provider string, usage llmpkg.ChatUsage, reasoningMode string) float64 {
	rates, ok := fallbackRates[provider]
	if !ok {
		return 0
	}

	inputRate, outputRate := rates.ChatInputPerMTok, rates.ChatOutputPerMTok
	if reasoningMode == "thinking" || reasoningMode == "extended" {
		inputRate, outputRate = rates.ReasoningInputPerMTok, rates.ReasoningOutputPerMTok
	}

	const perMillion = 1_000_000.0
	return float64(usage.PromptTokens)/perMillion*inputRate +
		float64(usage.CompletionTokens)/perMillion*outputRate
}
