package planner

import (
	"regexp"
	"sort"
)

type verticalProfile struct {
	keywords []string
	patterns []*regexp.Regexp
	// entityKinds that indicate this vertical when extracted.
	entityKinds []string
}

var verticalProfiles = map[Vertical]verticalProfile{
	VerticalLegal: {
		keywords: []string{"act", "section", "article", "rule", "law", "legal", "constitution", "rte", "amendment", "provision"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bsections?\s*\d+`),
			regexp.MustCompile(`\barticles?\s*\d+`),
			regexp.MustCompile(`\b[a-z ]+act,?\s*(?:19|20)\d{2}`),
		},
		entityKinds: []string{EntitySection, EntityArticle, EntityRule, EntityActName},
	},
	VerticalGO: {
		keywords: []string{"go", "order", "government order", "memo", "notification", "circular", "proceedings", "department"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bg\.?\s*o\.?\s*(?:ms|rt)?\.?\s*(?:no)?\.?\s*\d+`),
			regexp.MustCompile(`\bdated\s+\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}`),
		},
		entityKinds: []string{EntityGONumber},
	},
	VerticalJudicial: {
		keywords: []string{"court", "judgment", "judgement", "case", "writ", "petition", "ruling", "verdict", "appeal", "bench"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bw\.?\s*p\.?\s*no\.?\s*\d+`),
			regexp.MustCompile(`\b(?:vs|versus)\b`),
		},
		entityKinds: []string{EntityCaseNumber},
	},
	VerticalData: {
		keywords: []string{"data", "statistics", "report", "numbers", "percentage", "enrollment", "survey", "table", "figures", "trend"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bhow many\b`),
			regexp.MustCompile(`\b\d+(?:\.\d+)?\s*%`),
		},
		entityKinds: nil,
	},
	VerticalSchemes: {
		keywords: []string{"scheme", "schemes", "amma vodi", "nadu-nedu", "vidya deevena", "gorumudda", "scholarship", "welfare", "program", "programme"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:amma vodi|nadu[- ]nedu|vidya deevena|jagananna)\b`),
		},
		entityKinds: nil,
	},
}

// Per-mode context boosts. GO orders dominate precise QA lookups; schemes
// and data matter more when exploring.
var modeBoosts = map[Mode]map[Vertical]float64{
	ModeQA: {
		VerticalLegal:    1.2,
		VerticalGO:       1.3,
		VerticalJudicial: 1.0,
		VerticalData:     0.9,
		VerticalSchemes:  0.9,
	},
	ModeDeepThink: {
		VerticalLegal:    1.2,
		VerticalGO:       1.1,
		VerticalJudicial: 1.1,
		VerticalData:     1.0,
		VerticalSchemes:  1.0,
	},
	ModeBrainstorm: {
		VerticalLegal:    0.9,
		VerticalGO:       0.9,
		VerticalJudicial: 0.8,
		VerticalData:     1.2,
		VerticalSchemes:  1.3,
	},
}

var fallbackDistributions = map[Mode]map[Vertical]float64{
	ModeQA: {
		VerticalLegal:    0.6,
		VerticalGO:       0.5,
		VerticalJudicial: 0.3,
	},
	ModeDeepThink: {
		VerticalLegal:    0.8,
		VerticalGO:       0.7,
		VerticalJudicial: 0.6,
		VerticalSchemes:  0.5,
		VerticalData:     0.4,
	},
	ModeBrainstorm: {
		VerticalSchemes:  0.8,
		VerticalData:     0.7,
		VerticalLegal:    0.4,
	},
}

const (
	keywordWeight   = 0.2
	patternWeight   = 0.4
	entityWeight    = 0.3
	routingMinScore = 0.3
	maxVerticals    = 3
)

// Route scores each vertical for the query and returns the top selection
// with aggregation weights normalized to sum to 1.
func Route(normalized string, entities map[string][]Entity, mode Mode, signals IntentSignals) ([]Vertical, map[Vertical]float64) {
	scores := make(map[Vertical]float64, len(verticalProfiles))

	for vertical, profile := range verticalProfiles {
		score := 0.0
		for _, kw := range profile.keywords {
			if containsWord(normalized, kw) {
				score += keywordWeight
			}
		}
		for _, re := range profile.patterns {
			if re.MatchString(normalized) {
				score += patternWeight
			}
		}
		for _, kind := range profile.entityKinds {
			if len(entities[kind]) > 0 {
				score += entityWeight
			}
		}

		if boost, ok := modeBoosts[mode][vertical]; ok {
			score *= boost
		}
		scores[vertical] = score
	}

	// Comprehensive queries pull in the statutory and scheme corpora;
	// brainstorming favors schemes and data.
	if signals.ComprehensiveScore > 0.5 {
		scores[VerticalLegal] += 0.2
		scores[VerticalSchemes] += 0.2
	}
	if mode == ModeBrainstorm && signals.BrainstormScore > 0.5 {
		scores[VerticalSchemes] += 0.2
		scores[VerticalData] += 0.2
	}

	best := 0.0
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	if best < routingMinScore {
		scores = make(map[Vertical]float64, len(fallbackDistributions[mode]))
		for vertical, weight := range fallbackDistributions[mode] {
			scores[vertical] = weight
		}
	}

	ordered := make([]Vertical, 0, len(scores))
	for vertical, s := range scores {
		if s > 0 {
			ordered = append(ordered, vertical)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := scores[ordered[i]], scores[ordered[j]]
		if si != sj {
			return si > sj
		}
		return verticalPriority(ordered[i]) < verticalPriority(ordered[j])
	})
	if len(ordered) > maxVerticals {
		ordered = ordered[:maxVerticals]
	}

	weights := make(map[Vertical]float64, len(ordered))
	total := 0.0
	for _, v := range ordered {
		total += scores[v]
	}
	for _, v := range ordered {
		if total > 0 {
			weights[v] = scores[v] / total
		} else {
			weights[v] = 1.0 / float64(len(ordered))
		}
	}
	return ordered, weights
}

func verticalPriority(v Vertical) int {
	for i, cv := range CorpusVerticals {
		if cv == v {
			return i
		}
	}
	return len(CorpusVerticals)
}
