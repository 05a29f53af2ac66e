package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMetrics_KeepsAllowListAndUniversalSet(t *testing.T) {
	metrics := map[string]any{
		"net_profit":       1234.5,
		"sharpe_ratio":     1.2,
		"custom_signal":    0.9,
		"provider_special": "x",
	}
	out := FilterMetrics([]string{"provider_special"}, metrics)

	assert.Contains(t, out, "net_profit")
	assert.Contains(t, out, "sharpe_ratio")
	assert.Contains(t, out, "provider_special")
	assert.NotContains(t, out, "custom_signal")
}

func TestFilterMetrics_NoRenamingOrRecomputation(t *testing.T) {
	out := FilterMetrics(nil, map[string]any{"net_profit": 10.0})
	assert.Equal(t, 10.0, out["net_profit"])
}

func TestFilterMetrics_EmptyAllowListKeepsOnlyUniversal(t *testing.T) {
	out := FilterMetrics(nil, map[string]any{
		"net_profit": 1.0,
		"other":      2.0,
	})
	assert.Len(t, out, 1)
	assert.Contains(t, out, "net_profit")
}
