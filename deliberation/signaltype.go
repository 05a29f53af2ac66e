package deliberation

import "github.com/quantforge/llmcore/crossvalidate"

// InferSignalType maps a provider/agent identity to the cross-validator
// signal type it represents: the reasoning model drives the primary
// quantitative decision, the technical-analysis model supplies technical
// signals, and the research model's news/sentiment focus makes it a
// sentiment signal.
func InferSignalType(agent string) crossvalidate.SignalType {
	switch agent {
	case "technical":
		return crossvalidate.SignalTechnical
	case "research":
		return crossvalidate.SignalSentiment
	default:
		return crossvalidate.SignalQuantitative
	}
}
