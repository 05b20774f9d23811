package rerank

import (
	"sort"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

// CategoryCoverage reports how one predicted category fared.
type CategoryCoverage struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Covered  bool   `json:"covered"`
}

// CoverageReport summarizes category coverage for the response trace.
type CoverageReport struct {
	Categories        []CategoryCoverage `json:"categories"`
	MissingCategories []string           `json:"missing_categories"`
	CoverageScore     float64            `json:"coverage_score"`
}

// CoverageEnforcer guarantees that every predicted policy category is
// represented in the final selection when candidates for it exist.
type CoverageEnforcer struct {
	minPerCategory  int
	diversityWeight float64
}

// NewCoverageEnforcer creates the enforcer from retrieval config.
func NewCoverageEnforcer(cfg config.RetrievalConfig) *CoverageEnforcer {
	minPer := cfg.MinPerCategory
	if minPer <= 0 {
		minPer = 1
	}
	return &CoverageEnforcer{
		minPerCategory:  minPer,
		diversityWeight: float64(cfg.DiversityWeight),
	}
}

// Enforce selects up to finalTopK candidates: a mandatory pass guaranteeing
// each predicted category its quota, then a relevance-plus-diversity fill.
// Candidates are annotated with their matched categories as a side effect.
func (e *CoverageEnforcer) Enforce(cands []retrieval.Candidate, plan *planner.Plan, finalTopK int) ([]retrieval.Candidate, *CoverageReport) {
	for i := range cands {
		cands[i].MatchedCategories = planner.MatchCategories(cands[i].Content)
	}

	if finalTopK <= 0 || len(cands) == 0 {
		return nil, e.report(nil, plan)
	}
	if len(plan.PredictedCategories) == 0 {
		if len(cands) > finalTopK {
			cands = cands[:finalTopK]
		}
		return cands, e.report(cands, plan)
	}

	chosen := make([]retrieval.Candidate, 0, finalTopK)
	used := make(map[string]bool, finalTopK)
	categoryCounts := make(map[string]int)

	pick := func(c retrieval.Candidate) {
		chosen = append(chosen, c)
		used[c.ChunkID] = true
		for _, cat := range c.MatchedCategories {
			categoryCounts[cat]++
		}
	}

	// Mandatory pass: each predicted category gets its quota of the
	// best-scored candidates that mention it.
	for _, category := range plan.PredictedCategories {
		picked := 0
		for _, c := range cands {
			if picked >= e.minPerCategory || len(chosen) >= finalTopK {
				break
			}
			if used[c.ChunkID] || !hasCategory(c.MatchedCategories, category) {
				continue
			}
			pick(c)
			picked++
		}
	}

	// Fill pass: maximize (1-w)*score + w*diversity_bonus per remaining slot.
	for len(chosen) < finalTopK {
		bestIdx := -1
		bestScore := 0.0
		for i, c := range cands {
			if used[c.ChunkID] {
				continue
			}
			score := (1-e.diversityWeight)*c.EffectiveScore() + e.diversityWeight*e.diversityBonus(c, categoryCounts)
			if bestIdx < 0 || score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx < 0 {
			break
		}
		pick(cands[bestIdx])
	}

	sort.Slice(chosen, func(i, j int) bool {
		if chosen[i].EffectiveScore() != chosen[j].EffectiveScore() {
			return chosen[i].EffectiveScore() > chosen[j].EffectiveScore()
		}
		return chosen[i].ChunkID < chosen[j].ChunkID
	})
	return chosen, e.report(chosen, plan)
}

// diversityBonus rewards candidates opening or barely-covered categories.
func (e *CoverageEnforcer) diversityBonus(c retrieval.Candidate, counts map[string]int) float64 {
	bonus := 0.0
	for _, cat := range c.MatchedCategories {
		switch counts[cat] {
		case 0:
			if bonus < 0.3 {
				bonus = 0.3
			}
		case 1:
			if bonus < 0.1 {
				bonus = 0.1
			}
		}
	}
	return bonus
}

func (e *CoverageEnforcer) report(chosen []retrieval.Candidate, plan *planner.Plan) *CoverageReport {
	report := &CoverageReport{}
	if len(plan.PredictedCategories) == 0 {
		report.CoverageScore = 1.0
		return report
	}

	counts := make(map[string]int)
	for _, c := range chosen {
		for _, cat := range c.MatchedCategories {
			counts[cat]++
		}
	}

	covered := 0
	for _, category := range plan.PredictedCategories {
		count := counts[category]
		cc := CategoryCoverage{Category: category, Count: count, Covered: count > 0}
		report.Categories = append(report.Categories, cc)
		if cc.Covered {
			covered++
		} else {
			report.MissingCategories = append(report.MissingCategories, category)
		}
	}
	report.CoverageScore = float64(covered) / float64(len(plan.PredictedCategories))
	return report
}

func hasCategory(categories []string, category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
