package recommendation

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls the first well-formed top-level JSON object out of
// free-form oracle output. The oracle is asked for bare JSON but routinely
// wraps it in markdown fences or surrounds it with prose, so we strip fences
// first and then scan for a balanced {...} span. The scanner is string- and
// escape-aware, braces inside JSON string values do not confuse it.
// Returns nil when no parseable object is found. Never panics.
func ExtractJSONObject(text string) []byte {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	offset := 0
	for {
		start := strings.IndexByte(cleaned[offset:], '{')
		if start == -1 {
			return nil
		}
		start += offset
		if candidate := scanBalancedObject(cleaned[start:]); candidate != nil {
			if json.Valid(candidate) {
				return candidate
			}
		}
		offset = start + 1
	}
}

// scanBalancedObject returns the shortest prefix of s that forms a balanced
// {...} span, or nil if the braces never close.
func scanBalancedObject(s string) []byte {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(s[:i+1])
			}
		}
	}
	return nil
}

// decodeFirstJSON extracts and unmarshals the first JSON object in text into
// v. Reports whether both steps succeeded; callers must have a fallback for
// the false case.
func decodeFirstJSON(text string, v any) bool {
	raw := ExtractJSONObject(text)
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
