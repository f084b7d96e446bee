// Package utils provides shared utilities for text and logging.
package utils

// Ellipsis is appended to text cut by Truncate.
const Ellipsis = "..."

// Truncate returns s cut to maxLen characters (runes) with Ellipsis appended when
// it was longer. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + Ellipsis
}

// OrDash returns s, or "-" when s is empty. Whitespace is kept as is.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
