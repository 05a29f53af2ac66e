package deliberation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantforge/llmcore/crossvalidate"
)

func TestInferSignalType(t *testing.T) {
	assert.Equal(t, crossvalidate.SignalTechnical, InferSignalType("technical"))
	assert.Equal(t, crossvalidate.SignalSentiment, InferSignalType("research"))
	assert.Equal(t, crossvalidate.SignalQuantitative, InferSignalType("reasoner"))
	assert.Equal(t, crossvalidate.SignalQuantitative, InferSignalType("unknown-agent"))
}
