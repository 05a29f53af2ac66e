package sanitizer

import "math"

// defaultDecimals is the rounding precision applied to a float that has no
// per-metric override.
const defaultDecimals = 3

// QuantizeFloats recurses through v (maps, slices, floats, ints, strings)
// and rounds every float64 to its per-key precision in overrides, or
// defaultDecimals when the key has no override. Non-float values pass
// through unchanged.
func QuantizeFloats(v any, overrides map[string]int) any {
	return quantizeValue(v, "", overrides)
}

func quantizeValue(v any, key string, overrides map[string]int) any {
	switch t := v.(type) {
	case float64:
		decimals := defaultDecimals
		if d, ok := overrides[key]; ok {
			decimals = d
		}
		return roundTo(t, decimals)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = quantizeValue(vv, k, overrides)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = quantizeValue(vv, key, overrides)
		}
		return out
	default:
		return v
	}
}

func roundTo(f float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	mult := math.Pow(10, float64(decimals))
	return math.Round(f*mult) / mult
}
