package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizePrompt_NoMetricsReturnsPromptUnchanged(t *testing.T) {
	o := NewOptimizer(nil, nil)
	out, err := o.OptimizePrompt("reasoner", "analyze AAPL", nil)
	require.NoError(t, err)
	assert.Equal(t, "analyze AAPL", out)
}

func TestOptimizePrompt_AppendsUnderMetricsHeadingWhenNoBlockFound(t *testing.T) {
	o := NewOptimizer(nil, nil)
	out, err := o.OptimizePrompt("reasoner", "analyze AAPL", map[string]any{
		"sharpe_ratio": 1.2345,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Metrics:")
	assert.Contains(t, out, `"sharpe_ratio":1.235`)
}

func TestOptimizePrompt_SubstitutesExistingMetricsBlock(t *testing.T) {
	o := NewOptimizer(nil, nil)
	prompt := `given {"sharpe_ratio": 0.5, "net_profit": 10} decide`
	out, err := o.OptimizePrompt("reasoner", prompt, map[string]any{
		"sharpe_ratio": 1.23456,
		"net_profit":   99.995,
	})
	require.NoError(t, err)
	assert.NotContains(t, out, `"sharpe_ratio": 0.5`)
	assert.Contains(t, out, "decide")
}

func TestOptimizePrompt_FiltersToAllowListBeforeSerializing(t *testing.T) {
	o := NewOptimizer(map[string][]string{"reasoner": {"custom_metric"}}, nil)
	out, err := o.OptimizePrompt("reasoner", "x", map[string]any{
		"custom_metric": 1.0,
		"dropped":       2.0,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "custom_metric")
	assert.NotContains(t, out, "dropped")
}
