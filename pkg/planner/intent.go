package planner

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned when classification is attempted on a blank
// query.
var ErrEmptyQuery = errors.New("query is empty")

var qaKeywords = []string{
	"what", "which", "when", "where", "who", "is", "are", "does",
	"define", "meaning", "number", "date", "section", "article", "rule",
}

var deepThinkKeywords = []string{
	"analyze", "analysis", "compare", "comparison", "evaluate", "assess",
	"framework", "comprehensive", "detailed", "implications", "impact",
	"explain", "why", "relationship", "structure", "policy",
}

var brainstormKeywords = []string{
	"ideas", "innovative", "improve", "suggest", "suggestions", "creative",
	"brainstorm", "alternatives", "ways", "strategies", "recommend",
	"possibilities", "imagine", "design", "explore",
}

var comprehensiveKeywords = []string{
	"complete", "comprehensive", "entire", "all", "overall", "full",
	"framework", "overview", "landscape", "everything",
}

// Queries naming a specific legal or administrative identifier are answered
// in QA mode regardless of phrasing.
var specificEntityRes = []*regexp.Regexp{
	regexp.MustCompile(`\bsections?\s*\d+`),
	regexp.MustCompile(`\barticles?\s*\d+`),
	regexp.MustCompile(`\bg\.?\s*o\.?\s*(?:ms|rt)?\.?\s*(?:no)?\.?\s*\d+`),
	regexp.MustCompile(`\b(?:case|w\.?\s*p\.?)\s*no\.?\s*\d+`),
	regexp.MustCompile(`\b(?:19|20)\d{2}\s*\(\d+\)`),
}

func countKeywordHits(query string, keywords []string) float64 {
	score := 0.0
	for _, kw := range keywords {
		if containsWord(query, kw) {
			score++
		}
	}
	return score
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

// Classify picks the response mode for a normalized query. explicitMode, if
// non-empty, overrides classification with confidence 1.0. The returned
// signals are min-max normalized over the raw scores.
func Classify(normalized string, entities map[string][]Entity, explicitMode Mode) (Mode, float64, IntentSignals, error) {
	if strings.TrimSpace(normalized) == "" {
		return "", 0, IntentSignals{}, ErrEmptyQuery
	}

	qaScore := countKeywordHits(normalized, qaKeywords)
	dtScore := countKeywordHits(normalized, deepThinkKeywords)
	bsScore := countKeywordHits(normalized, brainstormKeywords)
	compScore := countKeywordHits(normalized, comprehensiveKeywords)

	specificity := 0.0
	for _, list := range entities {
		specificity += float64(len(list))
	}

	signals := normalizeSignals(qaScore, dtScore, bsScore, compScore, specificity)

	if explicitMode != "" {
		return explicitMode, 1.0, signals, nil
	}

	wordCount := len(strings.Fields(normalized))

	if wordCount <= 5 && qaScore > 0 {
		return ModeQA, 0.9, signals, nil
	}
	for _, re := range specificEntityRes {
		if re.MatchString(normalized) {
			return ModeQA, 0.85, signals, nil
		}
	}
	if wordCount > 15 && dtScore == 0 && bsScore == 0 {
		return ModeDeepThink, 0.7, signals, nil
	}

	// Tie-break order QA > DeepThink > Brainstorm falls out of strict
	// greater-than comparisons.
	mode, best := ModeQA, qaScore
	if dtScore > best {
		mode, best = ModeDeepThink, dtScore
	}
	if bsScore > best {
		mode, best = ModeBrainstorm, bsScore
	}

	confidence := 0.6 + 0.1*best
	if confidence > 0.95 {
		confidence = 0.95
	}
	return mode, confidence, signals, nil
}

func normalizeSignals(qa, dt, bs, comp, spec float64) IntentSignals {
	lo, hi := qa, qa
	for _, v := range []float64{dt, bs, comp, spec} {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	norm := func(v float64) float64 {
		if span == 0 {
			return 0
		}
		return (v - lo) / span
	}
	return IntentSignals{
		QAScore:            norm(qa),
		DeepThinkScore:     norm(dt),
		BrainstormScore:    norm(bs),
		ComprehensiveScore: norm(comp),
		SpecificityScore:   norm(spec),
	}
}
