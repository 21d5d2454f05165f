package formatting

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most n runes without splitting a multi-byte
// character. A non-positive n returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Excerpt collapses whitespace in s and truncates it to n runes, appending an
// ellipsis when anything was cut. Used for one-line previews in messages.
func Excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	cut := Truncate(s, n)
	if cut != s {
		return strings.TrimSpace(cut) + "…"
	}
	return s
}
