// Package textutil holds small string helpers shared by the pipeline.
package textutil

import "strings"

// Clean collapses all whitespace runs to a single space and trims the ends.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n characters, appending "..." when cut.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// Prefix returns the first n characters of s.
func Prefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Preview is the cleaned, truncated form used in log lines.
func Preview(s string) string {
	return Truncate(Clean(s), 50)
}
