package rerank

import (
	"sort"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/scoring"
)

type boostCategory struct {
	name     string
	triggers []string
	terms    []string
}

// Trigger words activate a category for the query; terms score the chunk
// content once the category is active.
var boostCategories = []boostCategory{
	{
		name:     "infrastructure",
		triggers: []string{"infrastructure", "nadu-nedu", "nadu nedu", "building", "construction", "facilities"},
		terms:    []string{"infrastructure", "building", "classroom", "toilet", "compound", "furniture", "repair", "construction", "facilities", "electricity"},
	},
	{
		name:     "welfare_schemes",
		triggers: []string{"scheme", "schemes", "amma vodi", "vidya deevena", "scholarship", "welfare"},
		terms:    []string{"scheme", "welfare", "scholarship", "benefit", "amount", "eligibility", "disbursement", "beneficiary"},
	},
	{
		name:     "safety",
		triggers: []string{"safety", "security", "protection", "pocso", "harassment"},
		terms:    []string{"safety", "security", "protection", "grievance", "complaint", "child protection"},
	},
	{
		name:     "technical",
		triggers: []string{"technical", "digital", "computer", "online", "technology"},
		terms:    []string{"digital", "computer", "technology", "online", "software", "internet", "smart"},
	},
}

// Booster applies the additive keyword boost to candidates of trigger-matched
// categories.
type Booster struct {
	cfg config.BoostConfig
}

// NewBooster creates a booster from config.
func NewBooster(cfg config.BoostConfig) *Booster {
	return &Booster{cfg: cfg}
}

func (b *Booster) factor(name string) float64 {
	switch name {
	case "infrastructure":
		return float64(b.cfg.Infrastructure)
	case "welfare_schemes":
		return float64(b.cfg.WelfareSchemes)
	case "safety":
		return float64(b.cfg.Safety)
	case "technical":
		return float64(b.cfg.Technical)
	}
	return 0
}

// activeCategories returns the boost categories the query triggers.
func activeCategories(query string) []boostCategory {
	q := strings.ToLower(query)
	var active []boostCategory
	for _, bc := range boostCategories {
		for _, trigger := range bc.triggers {
			if strings.Contains(q, trigger) {
				active = append(active, bc)
				break
			}
		}
	}
	return active
}

// Boost raises the score of candidates whose content matches the triggered
// categories: boosted = min(1.0, score + sum(factor * scale * bm25)).
// Candidates below the minimum score are left alone so irrelevant matches
// are not promoted. The returned slice is re-sorted.
func (b *Booster) Boost(cands []retrieval.Candidate, query string) []retrieval.Candidate {
	active := activeCategories(query)
	if len(active) == 0 || len(cands) == 0 {
		return cands
	}

	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.Content
	}
	index := scoring.NewBM25(docs)

	scale := float64(b.cfg.Scale)
	minScore := float64(b.cfg.MinScore)

	for _, bc := range active {
		termScores := scoring.MinMaxNormalize(index.ScoreAll(strings.Join(bc.terms, " ")))
		factor := b.factor(bc.name)
		for i := range cands {
			if cands[i].EffectiveScore() < minScore || termScores[i] == 0 {
				continue
			}
			cands[i].BM25Boost += factor * scale * termScores[i]
		}
	}

	for i := range cands {
		if cands[i].BM25Boost == 0 {
			continue
		}
		boosted := cands[i].EffectiveScore() + cands[i].BM25Boost
		if boosted > 1.0 {
			boosted = 1.0
		}
		cands[i].RerankScore = boosted
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].EffectiveScore() != cands[j].EffectiveScore() {
			return cands[i].EffectiveScore() > cands[j].EffectiveScore()
		}
		return cands[i].ChunkID < cands[j].ChunkID
	})
	return cands
}
