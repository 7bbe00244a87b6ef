package utils

import (
	"strings"
	"unicode"
)

// EscapeQueryChars escapes the Lucene query syntax characters and all
// whitespace by prefixing each with a backslash. Untrusted principal
// values must pass through here before being interpolated into a
// filter query clause.
//
// See the Lucene query parser syntax documentation on escaping
// special characters.
func EscapeQueryChars(in string) string {
	var sb strings.Builder
	sb.Grow(len(in))

	for _, c := range in {
		switch c {
		case '\\', '+', '-', '!', '(', ')', ':',
			'^', '[', ']', '"', '{', '}', '~',
			'*', '?', '|', '&', ';':
			sb.WriteRune('\\')
		default:
			if unicode.IsSpace(c) {
				sb.WriteRune('\\')
			}
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
