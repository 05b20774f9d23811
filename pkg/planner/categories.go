package planner

import (
	"sort"
	"strings"
)

// The closed set of policy categories, in fixed priority order.
const (
	CategoryAccess         = "access"
	CategoryInfrastructure = "infrastructure"
	CategoryGovernance     = "governance"
	CategoryWelfare        = "welfare"
	CategoryCurriculum     = "curriculum"
	CategoryAssessment     = "assessment"
	CategoryTeacher        = "teacher"
)

// CategoryPriority orders categories for tie-breaks and broad QA queries.
var CategoryPriority = []string{
	CategoryAccess, CategoryInfrastructure, CategoryGovernance,
	CategoryWelfare, CategoryCurriculum, CategoryAssessment, CategoryTeacher,
}

type categoryKeywords struct {
	primary   []string
	secondary []string
}

// CategoryKeywordSets drives both prediction here and candidate
// classification in the coverage enforcer.
var CategoryKeywordSets = map[string]categoryKeywords{
	CategoryAccess: {
		primary:   []string{"access", "enrollment", "enrolment", "admission", "dropout", "out of school"},
		secondary: []string{"attendance", "retention", "inclusion", "distance", "transport"},
	},
	CategoryInfrastructure: {
		primary:   []string{"infrastructure", "building", "classroom", "toilet", "nadu-nedu", "construction"},
		secondary: []string{"facilities", "furniture", "electricity", "drinking water", "compound wall", "repair"},
	},
	CategoryGovernance: {
		primary:   []string{"governance", "administration", "monitoring", "compliance", "regulation", "implementation"},
		secondary: []string{"committee", "inspection", "audit", "accountability", "department", "order"},
	},
	CategoryWelfare: {
		primary:   []string{"welfare", "scholarship", "amma vodi", "vidya deevena", "midday meal", "mid-day meal"},
		secondary: []string{"incentive", "benefit", "assistance", "uniform", "textbook", "nutrition"},
	},
	CategoryCurriculum: {
		primary:   []string{"curriculum", "syllabus", "textbook", "medium of instruction", "subject"},
		secondary: []string{"english medium", "pedagogy", "content", "learning material", "foundational literacy"},
	},
	CategoryAssessment: {
		primary:   []string{"assessment", "examination", "exam", "evaluation", "test", "marks"},
		secondary: []string{"grading", "results", "pass percentage", "learning outcome", "performance"},
	},
	CategoryTeacher: {
		primary:   []string{"teacher", "teachers", "recruitment", "dsc", "transfer", "training"},
		secondary: []string{"posting", "promotion", "vacancy", "staff", "faculty", "professional development"},
	},
}

var broadQueryPatterns = []string{
	"current policies", "latest policies", "all policies", "education system",
	"ap education", "andhra pradesh education", "education policy framework",
	"overall education", "education sector", "complete policy",
}

// mandatoryTriggers adds categories that certain lexical cues always imply.
var mandatoryTriggers = []struct {
	cues       []string
	categories []string
}{
	{
		cues:       []string{"implementation"},
		categories: []string{CategoryGovernance, CategoryInfrastructure, CategoryWelfare, CategoryTeacher},
	},
	{
		cues:       []string{"quality", "outcome", "outcomes"},
		categories: []string{CategoryCurriculum, CategoryAssessment, CategoryTeacher, CategoryInfrastructure},
	},
	{
		cues:       []string{"inclusive", "equity"},
		categories: []string{CategoryAccess, CategoryWelfare, CategoryInfrastructure, CategoryGovernance},
	},
}

func countOccurrences(text, phrase string) int {
	count := 0
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return count
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			count++
		}
		idx = start + 1
	}
}

// ScoreCategories computes the raw keyword score per category: +2 per
// primary occurrence, +1 per secondary occurrence.
func ScoreCategories(normalized string) map[string]float64 {
	scores := make(map[string]float64, len(CategoryKeywordSets))
	for category, kw := range CategoryKeywordSets {
		score := 0.0
		for _, p := range kw.primary {
			score += 2.0 * float64(countOccurrences(normalized, p))
		}
		for _, s := range kw.secondary {
			score += 1.0 * float64(countOccurrences(normalized, s))
		}
		if score > 0 {
			scores[category] = score
		}
	}
	return scores
}

// MatchCategories classifies free text (typically chunk content) into the
// categories whose keywords it mentions, in priority order.
func MatchCategories(content string) []string {
	text := strings.ToLower(content)
	var out []string
	for _, category := range CategoryPriority {
		kw := CategoryKeywordSets[category]
		matched := false
		for _, p := range kw.primary {
			if countOccurrences(text, p) > 0 {
				matched = true
				break
			}
		}
		if !matched {
			for _, s := range kw.secondary {
				if countOccurrences(text, s) > 0 {
					matched = true
					break
				}
			}
		}
		if matched {
			out = append(out, category)
		}
	}
	return out
}

func isBroadQuery(normalized string) bool {
	for _, p := range broadQueryPatterns {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

func priorityIndex(category string) int {
	for i, c := range CategoryPriority {
		if c == category {
			return i
		}
	}
	return len(CategoryPriority)
}

// PredictCategories returns the policy categories a query is about, sorted
// by score descending with the fixed priority order breaking ties.
func PredictCategories(normalized string, mode Mode) []string {
	if isBroadQuery(normalized) {
		if mode == ModeDeepThink || mode == ModeBrainstorm {
			out := make([]string, len(CategoryPriority))
			copy(out, CategoryPriority)
			return out
		}
		// Broad QA keeps only the top of the priority order.
		return []string{
			CategoryAccess, CategoryInfrastructure, CategoryGovernance,
			CategoryWelfare, CategoryCurriculum,
		}
	}

	scores := ScoreCategories(normalized)
	selected := make(map[string]bool)
	for category, score := range scores {
		if score >= 2.0 {
			selected[category] = true
		}
	}
	for _, trigger := range mandatoryTriggers {
		for _, cue := range trigger.cues {
			if countOccurrences(normalized, cue) > 0 {
				for _, c := range trigger.categories {
					selected[c] = true
				}
				break
			}
		}
	}

	out := make([]string, 0, len(selected))
	for category := range selected {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := scores[out[i]], scores[out[j]]
		if si != sj {
			return si > sj
		}
		return priorityIndex(out[i]) < priorityIndex(out[j])
	})
	return out
}
