package planner

import (
	"regexp"
	"strings"
)

// Entity kinds produced by Extract.
const (
	EntitySection    = "section"
	EntityArticle    = "article"
	EntityRule       = "rule"
	EntityGONumber   = "go_number"
	EntityYear       = "year"
	EntityCaseNumber = "case_number"
	EntityActName    = "act_name"
)

type entityPattern struct {
	kind      string
	re        *regexp.Regexp
	normalize func(groups []string) string
}

// All patterns run against the normalized (lower-cased) query, so the
// character classes only need lower case.
var entityPatterns = []entityPattern{
	{
		kind:      EntitySection,
		re:        regexp.MustCompile(`\b(?:sections?|sec\.?|s\.)\s*(\d+[a-z]?(?:\(\d+[a-z]?\))*)`),
		normalize: func(g []string) string { return g[1] },
	},
	{
		kind:      EntityArticle,
		re:        regexp.MustCompile(`\barticles?\s*(\d+[a-z]?)`),
		normalize: func(g []string) string { return g[1] },
	},
	{
		kind:      EntityRule,
		re:        regexp.MustCompile(`\brules?\s*(\d+[a-z]?)`),
		normalize: func(g []string) string { return g[1] },
	},
	{
		kind:      EntityGONumber,
		re:        regexp.MustCompile(`\bg\.?\s*o\.?\s*(?:ms|rt)?\.?\s*(?:no)?\.?\s*(\d+)`),
		normalize: func(g []string) string { return strings.TrimLeft(g[1], "0") },
	},
	{
		kind:      EntityGONumber,
		re:        regexp.MustCompile(`\b(?:notification|order|memo)\s+no\.?\s*(\d+)`),
		normalize: func(g []string) string { return strings.TrimLeft(g[1], "0") },
	},
	{
		kind: EntityCaseNumber,
		re:   regexp.MustCompile(`\b(?:w\.?\s*p\.?|o\.?\s*s\.?|c\.?\s*a\.?|crl\.?\s*a\.?|slp)\s*(?:\(c\))?\s*no\.?\s*(\d+)\s+of\s+((?:19|20)\d{2})`),
		normalize: func(g []string) string {
			return g[1] + "/" + g[2]
		},
	},
	{
		kind: EntityActName,
		re:   regexp.MustCompile(`\b((?:[a-z]+\s+){1,6}act)(?:,?\s*((?:19|20)\d{2}))?`),
		normalize: func(g []string) string {
			name := titleCase(g[1])
			if g[2] != "" {
				name += ", " + g[2]
			}
			return name
		},
	},
	{
		kind:      EntityYear,
		re:        regexp.MustCompile(`\b((?:19|20)\d{2}(?:-\d{2,4})?)\b`),
		normalize: func(g []string) string { return g[1] },
	},
}

var titleSmallWords = map[string]bool{
	"of": true, "to": true, "the": true, "and": true, "for": true, "in": true,
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if i > 0 && titleSmallWords[w] {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Extract finds structured references in a normalized query. The result maps
// entity kind to matches in source order with their byte spans. Duplicate
// normalized forms are kept per occurrence; dedupe happens at filter build
// time.
func Extract(normalized string) map[string][]Entity {
	out := make(map[string][]Entity)
	for _, p := range entityPatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(normalized, -1) {
			groups := make([]string, 0, len(idx)/2)
			for g := 0; g < len(idx); g += 2 {
				if idx[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, normalized[idx[g]:idx[g+1]])
			}
			norm := p.normalize(groups)
			if norm == "" {
				continue
			}
			out[p.kind] = append(out[p.kind], Entity{
				Raw:        normalized[idx[0]:idx[1]],
				Normalized: norm,
				Start:      idx[0],
				End:        idx[1],
			})
		}
	}
	return out
}

// UniqueNormalized returns the deduplicated normalized values of one entity
// kind, preserving first-occurrence order.
func UniqueNormalized(entities []Entity) []string {
	seen := make(map[string]bool, len(entities))
	var out []string
	for _, e := range entities {
		if seen[e.Normalized] {
			continue
		}
		seen[e.Normalized] = true
		out = append(out, e.Normalized)
	}
	return out
}
