package helpers

import (
	"strings"
	"unicode/utf8"
)

// CollapseWhitespace folds runs of whitespace into single spaces and trims
// the result. Scraped article text arrives with arbitrary layout noise.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateChars cuts s to at most limit bytes without splitting a UTF-8 rune.
// A non-positive limit disables truncation. Only the tail is inspected, so
// invalid bytes earlier in the input pass through untouched.
func TruncateChars(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for i := 0; i < utf8.UTFMax-1 && len(cut) > 0; i++ {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
