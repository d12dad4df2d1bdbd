package extract

import "strings"

// Scrub replaces C0 and C1 control characters with spaces. Tab, line feed
// and carriage return are kept. Invalid UTF-8 becomes U+FFFD. Scrub is
// idempotent.
func Scrub(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r >= 0x7f && r <= 0x9f:
			return ' '
		}
		return r
	}, s)
}

// collapseSpaces joins the whitespace-separated fields of s with single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
