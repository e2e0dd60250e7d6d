package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SearchTerm cleans a free-text filter before it reaches a LIKE pattern.
// Whitespace runs collapse to one space, control characters and invalid
// UTF-8 are dropped, and the result is cut to at most maxChars runes.
func SearchTerm(input string, maxChars int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(input, ""))
	term := strings.Join(strings.Fields(cleaned), " ")
	if maxChars <= 0 || utf8.RuneCountInString(term) <= maxChars {
		return term
	}
	return strings.TrimSpace(string([]rune(term)[:maxChars]))
}
