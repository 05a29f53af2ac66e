package sanitizer

import (
	"encoding/json"
	"regexp"
)

// metricsBlockPattern finds an existing inline metrics JSON object so
// OptimizePrompt can replace it in place rather than appending a duplicate.
var metricsBlockPattern = regexp.MustCompile(`\{[^{}]*(?:sharpe_ratio|net_profit|win_rate|total_trades)[^{}]*\}`)

// Optimizer filters and quantizes metrics, then folds them into a prompt.
type Optimizer struct {
	AllowLists        map[string][]string
	QuantizeOverrides map[string]int
}

// NewOptimizer returns an Optimizer using the given per-provider metric
// allow-lists and per-metric quantization overrides.
func NewOptimizer(allowLists map[string][]string, quantizeOverrides map[string]int) *Optimizer {
	return &Optimizer{AllowLists: allowLists, QuantizeOverrides: quantizeOverrides}
}

// OptimizePrompt filters metrics to provider's allow-list plus the
// universal set, quantizes the surviving floats, and serializes the result
// as compact JSON. With no metrics, prompt is returned unchanged. The
// compact JSON replaces an existing inline metrics block in prompt if one
// is found, otherwise it is appended under a "Metrics:" heading.
func (o *Optimizer) OptimizePrompt(provider, prompt string, metrics map[string]any) (string, error) {
	if len(metrics) == 0 {
		return prompt, nil
	}

	filtered := FilterMetrics(o.AllowLists[provider], metrics)
	quantized := QuantizeFloats(filtered, o.QuantizeOverrides)

	compact, err := json.Marshal(quantized)
	if err != nil {
		return "", err
	}

	if loc := metricsBlockPattern.FindStringIndex(prompt); loc != nil {
		return prompt[:loc[0]] + string(compact) + prompt[loc[1]:], nil
	}
	return prompt + "\nMetrics: " + string(compact), nil
}
