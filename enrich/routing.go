package enrich

import (
	"fmt"
	"strings"
)

// RelevanceMode forces should_consult's answer regardless of keyword
// content.
type RelevanceMode string

const (
	RelevanceAlways RelevanceMode = "always"
	RelevanceNever  RelevanceMode = "never"
	RelevanceAuto   RelevanceMode = "auto"
)

var skipKeywords = []string{
	"backtest", "historical", "calculate", "rsi", "sharpe_ratio",
	"moving average", "macd", "bollinger", "indicator", "drawdown",
}

var triggerKeywords = []string{
	"sentiment", "news", "macro", "fed", "etf", "whale",
	"current", "today", "breaking", "announcement",
}

// ShouldConsult implements the adaptive-routing heuristic: an explicit
// "always"/"never" mode short-circuits; otherwise skip- and
// trigger-keyword counts decide, defaulting to false when neither side is
// decisive.
func ShouldConsult(mode RelevanceMode, taskDescription string) bool {
	switch mode {
	case RelevanceAlways:
		return true
	case RelevanceNever:
		return false
	}

	lower := strings.ToLower(taskDescription)
	skip := countMatches(lower, skipKeywords)
	trigger := countMatches(lower, triggerKeywords)

	switch {
	case skip >= 2 && trigger == 0:
		return false
	case trigger >= 1:
		return true
	default:
		return false
	}
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

// PeerSignal is one agent's opinion, formatted into the enriched prompt's
// peer-signals block.
type PeerSignal struct {
	Agent      string
	Direction  string
	Confidence float64
	Reasoning  string
}

// BuildEnrichedPrompt appends a formatted market-context block and a
// compact peer-signals list to basePrompt, each under a labelled header.
func BuildEnrichedPrompt(provider, basePrompt string, marketContext *MarketContext, peerSignals []PeerSignal) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if marketContext != nil {
		fmt.Fprintf(&b, "\n\n## Market Context (for %s)\n", provider)
		fmt.Fprintf(&b, "Regime: %s\n", marketContext.Regime)
		fmt.Fprintf(&b, "Trend: %s\n", marketContext.TrendDirection)
		fmt.Fprintf(&b, "Sentiment: %s (score=%.2f)\n", marketContext.Sentiment.Direction, marketContext.Sentiment.Score)
		if len(marketContext.KeyNews) > 0 {
			fmt.Fprintf(&b, "Key news: %s\n", strings.Join(marketContext.KeyNews, "; "))
		}
		if len(marketContext.RiskFactors) > 0 {
			fmt.Fprintf(&b, "Risk factors: %s\n", strings.Join(marketContext.RiskFactors, "; "))
		}
		if len(marketContext.MacroEvents) > 0 {
			fmt.Fprintf(&b, "Macro events: %s\n", strings.Join(marketContext.MacroEvents, "; "))
		}
		fmt.Fprintf(&b, "Volatility: %s\n", marketContext.VolatilityAssessment)
	}

	if len(peerSignals) > 0 {
		b.WriteString("\n## Peer Signals\n")
		for _, p := range peerSignals {
			fmt.Fprintf(&b, "[%s] %s (conf=%d%%): %s\n", p.Agent, strings.ToUpper(p.Direction), int(p.Confidence*100), p.Reasoning)
		}
	}

	return b.String()
}
