package llmutil

import "errors"

var (
	errNoObject   = errors.New("no JSON object found in reply")
	errUnbalanced = errors.New("unterminated JSON object in reply")
)

// ExtractJSONObject returns the first balanced JSON object in a completion
// reply. Markdown fences and prose around the object are ignored, as are
// braces inside string literals.
func ExtractJSONObject(reply string) (string, error) {
	start := -1
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(reply); i++ {
		c := reply[i]
		if start < 0 {
			if c == '{' {
				start, depth = i, 1
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return reply[start : i+1], nil
			}
		}
	}
	if start < 0 {
		return "", errNoObject
	}
	return "", errUnbalanced
}
