package crossvalidate

import "time"

// SignalType classifies the origin of an AgentSignal and ranks its
// priority when resolving disagreement (quantitative > technical >
// sentiment).
type SignalType string

const (
	SignalQuantitative SignalType = "quantitative"
	SignalTechnical    SignalType = "technical"
	SignalSentiment    SignalType = "sentiment"
)

// Priority returns the signal type's tie-break weight: quantitative
// outranks technical, which outranks sentiment.
func (t SignalType) Priority() int {
	switch t {
	case SignalQuantitative:
		return 3
	case SignalTechnical:
		return 2
	case SignalSentiment:
		return 1
	default:
		return 0
	}
}

// Direction is an agent's directional call.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// AgentSignal is the deliberation primitive exchanged between agents and
// fed into cross-validation.
type AgentSignal struct {
	Agent      string
	SignalType SignalType
	Direction  Direction
	Confidence float64
	Reasoning  string
	Data       map[string]any
	Timestamp  time.Time
}
