package sanitizer

import "sync/atomic"

// ThinkingGate decides whether the technical provider should run in
// extended-thinking mode, and counts how often the environment refused it.
type ThinkingGate struct {
	skipped atomic.Int64
}

// NewThinkingGate returns a gate with a zeroed skip counter.
func NewThinkingGate() *ThinkingGate {
	return &ThinkingGate{}
}

// ShouldEnable reports whether thinking mode should turn on for a request
// of the given complexity and prompt length. When envAllows is false the
// answer is always false and the skip counter increments.
func (g *ThinkingGate) ShouldEnable(envAllows bool, complexity Complexity, length int) bool {
	if !envAllows {
		g.skipped.Add(1)
		return false
	}
	if complexity == Simple {
		return false
	}
	return complexity == Complex || length > 300
}

// Skipped returns how many times ShouldEnable returned false because the
// environment disallowed thinking mode.
func (g *ThinkingGate) Skipped() int64 {
	return g.skipped.Load()
}
