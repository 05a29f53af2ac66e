package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// contentKeyPaths are tried in order against the decoded response body;
// the first non-empty string wins.
var contentKeyPaths = []string{
	"choices.0.message.content",
	"message.content",
	"content",
	"text",
	"response",
	"choices.0.text",
	"output.text",
}

// topLevelScanKeys is the last resort before giving up: a string value or
// the first element of a list value under any of these keys.
var topLevelScanKeys = []string{"choices", "message", "content", "text", "response", "output"}

// ExtractContent walks raw looking for response text along contentKeyPaths,
// then falls back to a shallow scan of topLevelScanKeys. It returns false
// only when neither strategy finds a non-empty string.
func ExtractContent(raw map[string]any) (string, bool) {
	for _, path := range contentKeyPaths {
		if v, ok := lookupPath(raw, path); ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed, true
				}
			}
		}
	}

	for _, key := range topLevelScanKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed, true
			}
		}
		if arr, ok := v.([]any); ok && len(arr) > 0 {
			if s, ok := arr[0].(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed, true
				}
			}
		}
	}

	return "", false
}

// ExtractContentOrMarker behaves like ExtractContent but, on failure,
// returns the full JSON dump of raw wrapped in a structured error marker
// instead of an empty string.
func ExtractContentOrMarker(raw map[string]any) string {
	if s, ok := ExtractContent(raw); ok {
		return s
	}
	dump, err := json.Marshal(raw)
	if err != nil {
		return "[EXTRACTION_FAILED] <unmarshalable response>"
	}
	return fmt.Sprintf("[EXTRACTION_FAILED] %s", string(dump))
}

func lookupPath(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// FilterCitations keeps only entries that look like http(s) URLs.
func FilterCitations(citations []string) []string {
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		if strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://") {
			out = append(out, c)
		}
	}
	return out
}
