package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizeFloats_DefaultsToThreeDecimals(t *testing.T) {
	out := QuantizeFloats(0.123456, nil)
	assert.Equal(t, 0.123, out)
}

func TestQuantizeFloats_PerMetricOverride(t *testing.T) {
	in := map[string]any{
		"net_profit":   1234.5678,
		"sharpe_ratio": 1.23456,
	}
	out := QuantizeFloats(in, map[string]int{"net_profit": 2}).(map[string]any)

	assert.Equal(t, 1234.57, out["net_profit"])
	assert.Equal(t, 1.235, out["sharpe_ratio"])
}

func TestQuantizeFloats_PassesThroughIntsAndStrings(t *testing.T) {
	in := map[string]any{
		"total_trades": 42,
		"label":        "ok",
	}
	out := QuantizeFloats(in, nil).(map[string]any)
	assert.Equal(t, 42, out["total_trades"])
	assert.Equal(t, "ok", out["label"])
}

func TestQuantizeFloats_RecursesThroughSlices(t *testing.T) {
	in := []any{0.123456, 0.987654}
	out := QuantizeFloats(in, nil).([]any)
	assert.Equal(t, 0.123, out[0])
	assert.Equal(t, 0.988, out[1])
}
