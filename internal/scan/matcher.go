package scan

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher tests page text against a fixed phrase list. Matching is
// case-insensitive substring containment with no word-boundary check, so
// "art" matches inside "party".
type Matcher struct {
	folded []string
}

// NewMatcher case-folds and trims every phrase once up front. Phrase indexes
// are preserved, so duplicate phrases are reported independently.
func NewMatcher(phrases []string) *Matcher {
	caser := cases.Fold()
	folded := make([]string, len(phrases))
	for i, p := range phrases {
		folded[i] = strings.TrimSpace(caser.String(p))
	}
	return &Matcher{folded: folded}
}

// Len returns the number of phrases
func (m *Matcher) Len() int {
	return len(m.folded)
}

// Match returns the indexes of the phrases found in pageText, ascending.
// A phrase that folds to the empty string never matches.
func (m *Matcher) Match(pageText string) []int {
	if len(m.folded) == 0 || pageText == "" {
		return nil
	}

	text := cases.Fold().String(pageText)

	var hits []int
	for i, phrase := range m.folded {
		if phrase == "" {
			continue
		}
		if strings.Contains(text, phrase) {
			hits = append(hits, i)
		}
	}
	return hits
}

// FindMatches is a one-shot Match over phrases
func FindMatches(pageText string, phrases []string) []int {
	return NewMatcher(phrases).Match(pageText)
}

// CleanPhrases drops empty and whitespace-only entries and keeps the rest in
// order with their original spelling.
func CleanPhrases(words []string) []string {
	phrases := make([]string, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			continue
		}
		phrases = append(phrases, w)
	}
	return phrases
}
