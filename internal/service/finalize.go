package service

import (
	"strings"
	"unicode"
)

// closingToken is appended when remote text has no usable sentence end.
const closingToken = "."

// FinalizeRemoteText trims model output to at most maxChars runes and makes
// sure it ends with a sentence terminator. Over-long text is cut back to the
// last sentence boundary that keeps at least minChars runes; without one it
// is hard-cut and closed with closingToken. Empty input returns "".
func FinalizeRemoteText(raw string, maxChars, minChars int) string {
	text := trimQuotes(strings.TrimSpace(raw))
	if text == "" || maxChars <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		if EndsWithTerminator(text) {
			return text
		}
		if len(runes)+1 <= maxChars {
			return text + closingToken
		}
		return string(runes[:maxChars-1]) + closingToken
	}

	if end := lastBoundary(runes, maxChars, minChars); end > 0 {
		return strings.TrimRightFunc(string(runes[:end]), unicode.IsSpace)
	}
	return strings.TrimRightFunc(string(runes[:maxChars-1]), unicode.IsSpace) + closingToken
}

// EndsWithTerminator reports whether text, ignoring trailing emoji and
// spaces, ends with a sentence terminator.
func EndsWithTerminator(text string) bool {
	runes := []rune(text)
	i := len(runes) - 1
	for i >= 0 && isDecoration(runes[i]) {
		i--
	}
	return i >= 0 && isTerminator(runes[i])
}

// lastBoundary returns the exclusive end of the last sentence inside the
// first maxChars runes, or 0 when no boundary at or past minChars exists.
// Emoji and spaces that directly follow the terminator stay with it.
func lastBoundary(runes []rune, maxChars, minChars int) int {
	for i := maxChars - 1; i >= 0 && i+1 >= minChars; i-- {
		if !isBoundaryAt(runes, i) {
			continue
		}
		end := i + 1
		for end < maxChars && isDecoration(runes[end]) {
			end++
		}
		return end
	}
	return 0
}

func isBoundaryAt(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?', '。':
		return true
	case '요', '다':
		// Only a closing particle when the word ends here.
		if i+1 == len(runes) {
			return true
		}
		next := runes[i+1]
		return isDecoration(next) || isTerminator(next)
	}
	return false
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '요', '다':
		return true
	}
	return false
}

// isDecoration matches spaces, emoji and other symbols that may trail a
// sentence.
func isDecoration(r rune) bool {
	return unicode.IsSpace(r) ||
		unicode.IsSymbol(r) ||
		r == '\u200d' || r == '\ufe0f' ||
		(r >= 0x1f000 && r <= 0x1faff)
}

func trimQuotes(s string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
