package sanitizer

import "strings"

// Complexity buckets a task description for cost/latency tradeoffs
// downstream (model selection, thinking-mode gate).
type Complexity int

const (
	Simple Complexity = iota
	Moderate
	Complex
)

func (c Complexity) String() string {
	switch c {
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	default:
		return "unknown"
	}
}

var complexKeywords = []string{
	"optimize", "compare", "multi-timeframe", "pattern", "regime",
	"correlation", "portfolio", "monte_carlo", "walk_forward",
}

var simpleKeywords = []string{
	"calculate", "get", "fetch", "lookup", "rsi", "macd", "ema",
}

var comparisonKeywords = []string{"compare", "comparison", " vs ", " versus "}

// Classify heuristically grades a task description's complexity by
// keyword density and surface features (question marks, length).
func Classify(task string) Complexity {
	lower := strings.ToLower(task)
	complexMatches := countMatches(lower, complexKeywords)
	simpleMatches := countMatches(lower, simpleKeywords)
	hasComparison := countMatches(lower, comparisonKeywords) > 0
	questionMarks := strings.Count(task, "?")

	switch {
	case complexMatches >= 2 || hasComparison || questionMarks >= 2:
		return Complex
	case complexMatches == 1 && simpleMatches == 0:
		return Moderate
	case simpleMatches >= 1 || len(task) < 100:
		return Simple
	case len(task) > 500:
		return Complex
	default:
		return Moderate
	}
}

func countMatches(s string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		total += strings.Count(s, kw)
	}
	return total
}
