// Package scoring holds the lexical and vector scoring primitives shared by
// the retriever, rerankers, and the BM25 booster.
package scoring

import "strings"

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"for": true, "to": true, "and": true, "or": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "by": true, "with": true,
	"as": true, "at": true, "it": true, "its": true, "this": true,
	"that": true, "from": true,
}

// Tokenize lower-cases, splits on non-alphanumerics, and drops stopwords and
// single-character tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
