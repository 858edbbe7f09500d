package retriever

import (
	"strings"
	"unicode"
)

// Tokenize performs tokenization suited to Korean text:
// 1. Lowercase for case-insensitive matching of Latin terms
// 2. Split on whitespace and punctuation
// 3. Generate character bigrams for CJK runs (no-space segmentation)
// 4. Keep individual CJK characters so single-syllable queries still match
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var currentWord strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if isCJK(r) {
				// Flush any pending non-CJK word
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
				if i+1 < len(runes) && isCJK(runes[i+1]) {
					tokens = append(tokens, string(r)+string(runes[i+1]))
				}
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}

	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}

	return tokens
}

// isCJK returns true if the rune belongs to a script written without spaces.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}
