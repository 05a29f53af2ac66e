package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThinkingGate_DisallowedIsAlwaysFalseAndCountsSkip(t *testing.T) {
	g := NewThinkingGate()
	assert.False(t, g.ShouldEnable(false, Complex, 1000))
	assert.Equal(t, int64(1), g.Skipped())
}

func TestThinkingGate_SimpleIsAlwaysFalse(t *testing.T) {
	g := NewThinkingGate()
	assert.False(t, g.ShouldEnable(true, Simple, 1000))
}

func TestThinkingGate_ComplexEnablesRegardlessOfLength(t *testing.T) {
	g := NewThinkingGate()
	assert.True(t, g.ShouldEnable(true, Complex, 10))
}

func TestThinkingGate_ModerateNeedsLength(t *testing.T) {
	g := NewThinkingGate()
	assert.False(t, g.ShouldEnable(true, Moderate, 100))
	assert.True(t, g.ShouldEnable(true, Moderate, 301))
}
