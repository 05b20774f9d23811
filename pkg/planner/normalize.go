package planner

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	trailingPunctRe = regexp.MustCompile(`[?!.,;:]+$`)
)

var fillerWords = map[string]bool{
	"what": true, "is": true, "the": true, "a": true, "an": true,
	"of": true, "in": true, "on": true, "for": true, "to": true,
	"are": true, "was": true, "were": true, "does": true, "do": true,
	"how": true, "why": true, "when": true, "which": true, "who": true,
	"about": true, "tell": true, "me": true, "please": true, "can": true,
	"you": true,
}

// Normalize lower-cases, collapses whitespace, and trims trailing
// punctuation. Idempotent; entity substrings survive apart from case folding.
func Normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = whitespaceRe.ReplaceAllString(q, " ")
	q = trailingPunctRe.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// StripFillers removes common filler words from a normalized query for
// keyword-oriented scoring. Never called before Normalize.
func StripFillers(normalized string) string {
	words := strings.Fields(normalized)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
