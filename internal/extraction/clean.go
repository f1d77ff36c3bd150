package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	storeNameDisallowed = regexp.MustCompile(`[^\p{L}\p{N} &.\-]`)
	itemDisallowed      = regexp.MustCompile(`[^\p{L}\p{N} \-]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// CleanStoreName strips OCR noise from a store name and title-cases each word.
// Every word is lowered after its first letter, so "CVS" becomes "Cvs".
func CleanStoreName(s string) string {
	s = storeNameDisallowed.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// CleanItemDescription strips OCR noise from a line item description
func CleanItemDescription(s string) string {
	s = itemDisallowed.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
