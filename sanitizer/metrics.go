package sanitizer

// universalMetrics are kept for every provider regardless of its allow-list.
var universalMetrics = map[string]bool{
	"net_profit":       true,
	"net_profit_pct":   true,
	"total_trades":     true,
	"win_rate":         true,
	"max_drawdown_pct": true,
	"sharpe_ratio":     true,
}

// FilterMetrics projects metrics down to the keys in allowList plus the
// universal set. It never renames or recomputes a value.
func FilterMetrics(allowList []string, metrics map[string]any) map[string]any {
	allowed := make(map[string]bool, len(allowList))
	for _, m := range allowList {
		allowed[m] = true
	}

	out := make(map[string]any, len(metrics))
	for k, v := range metrics {
		if allowed[k] || universalMetrics[k] {
			out[k] = v
		}
	}
	return out
}
