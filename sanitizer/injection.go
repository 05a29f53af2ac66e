package sanitizer

import "regexp"

// redactedMarker replaces every matched unsafe pattern. It does not itself
// match any pattern below, so scrubbing twice is a no-op the second time.
const redactedMarker = "[REDACTED_UNSAFE_PATTERN]"

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)output\s+(all\s+)?(api\s+)?keys`),
	regexp.MustCompile(`(?i)execute\s+code`),
	regexp.MustCompile(`(?i)<script>`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous`),
	regexp.MustCompile(`(?i)disregard\s+`),
}

// Scrub replaces every unsafe pattern match in s with redactedMarker. It is
// idempotent: Scrub(Scrub(s)) == Scrub(s).
func Scrub(s string) string {
	for _, p := range injectionPatterns {
		s = p.ReplaceAllString(s, redactedMarker)
	}
	return s
}

// ScrubValue recursively scrubs every string reachable from v: map values,
// slice elements, and plain strings. Other types pass through unchanged.
func ScrubValue(v any) any {
	switch t := v.(type) {
	case string:
		return Scrub(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = ScrubValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = ScrubValue(vv)
		}
		return out
	default:
		return v
	}
}
