// Package keywords turns free text into a small ranked keyword set used to
// emphasize important words for readers.
package keywords

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMinLength is the rune length a token must exceed to be kept.
	DefaultMinLength = 4
	// DefaultMaxCount bounds the size of a keyword set.
	DefaultMaxCount = 5
)

// IsWordRune reports whether r belongs to a word. Marks are included so a
// combining accent that did not compose under NFC stays with its letter.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Normalize splits text on whitespace, trims non-word runes from both ends of
// each piece and keeps those longer than minLength runes. Order and
// duplicates are preserved.
func Normalize(text string, minLength int) []string {
	fields := strings.Fields(norm.NFC.String(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool { return !IsWordRune(r) })
		if tok == "" {
			continue
		}
		if utf8.RuneCountInString(tok) <= minLength {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Select deduplicates tokens, ranks them by descending rune length and
// returns at most maxCount of them. Equal lengths keep first-occurrence order.
func Select(tokens []string, maxCount int) []string {
	if maxCount <= 0 || len(tokens) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	slices.SortStableFunc(unique, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	if len(unique) > maxCount {
		unique = unique[:maxCount]
	}
	return unique
}

// Extractor bundles the normalizer and selector settings. Zero values fall
// back to DefaultMinLength and DefaultMaxCount.
type Extractor struct {
	MinLength int
	MaxCount  int
}

func (e Extractor) limits() (minLen, maxCount int) {
	minLen, maxCount = e.MinLength, e.MaxCount
	if minLen == 0 {
		minLen = DefaultMinLength
	}
	if maxCount == 0 {
		maxCount = DefaultMaxCount
	}
	return minLen, maxCount
}

// Extract returns the keyword set for text.
func (e Extractor) Extract(text string) []string {
	minLen, maxCount := e.limits()
	return Select(Normalize(text, minLen), maxCount)
}

// Restrict applies the keyword set rules to caller-supplied keywords. Each
// entry is normalized like extracted text before Select runs over the lot.
func (e Extractor) Restrict(kws []string) []string {
	minLen, maxCount := e.limits()
	tokens := make([]string, 0, len(kws))
	for _, k := range kws {
		tokens = append(tokens, Normalize(k, minLen)...)
	}
	return Select(tokens, maxCount)
}
