package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// eraseWord replaces every occurrence of word that sits on word boundaries
// with a single space. found reports whether anything was replaced.
// Boundaries are checked against the whole of s.
func eraseWord(s, word string) (string, bool) {
	if word == "" {
		return s, false
	}
	var b strings.Builder
	found := false
	written, from := 0, 0
	for from <= len(s)-len(word) {
		i := strings.Index(s[from:], word)
		if i < 0 {
			break
		}
		i += from
		end := i + len(word)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			b.WriteString(s[written:i])
			b.WriteByte(' ')
			found = true
			written, from = end, end
			continue
		}
		// step one rune past the false hit
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	if !found {
		return s, false
	}
	b.WriteString(s[written:])
	return b.String(), true
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
