// Package rerank rescores the aggregated candidate pool: three reranker
// strategies, the category coverage enforcer, and additive BM25 boosting.
package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

// Reranker rescores candidates and returns at most plan.RerankTop of them.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, cands []retrieval.Candidate, plan *planner.Plan) []retrieval.Candidate
}

// Select returns the reranker for a plan.
func Select(kind planner.RerankerKind, policy *PolicyReranker, brainstorm *BrainstormReranker) Reranker {
	switch kind {
	case planner.RerankerPolicy:
		return policy
	case planner.RerankerBrainstorm:
		return brainstorm
	default:
		return LightReranker{}
	}
}

// sortAndTruncate orders by rerank score descending (chunk ID breaking ties
// for determinism) and keeps at most limit items.
func sortAndTruncate(cands []retrieval.Candidate, limit int) []retrieval.Candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].RerankScore != cands[j].RerankScore {
			return cands[i].RerankScore > cands[j].RerankScore
		}
		return cands[i].ChunkID < cands[j].ChunkID
	})
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

// entityBoost rewards exact filter-value matches in the content: +0.1 per
// match capped at +0.3, plus +0.1 when the content cites a section or GO
// number at all.
func entityBoost(c *retrieval.Candidate, plan *planner.Plan) float64 {
	content := strings.ToLower(c.Content)

	matchBoost := 0.0
	for _, values := range plan.Filters {
		for _, v := range values {
			if strings.Contains(content, strings.ToLower(v)) {
				matchBoost += 0.1
			}
		}
	}
	if matchBoost > 0.3 {
		matchBoost = 0.3
	}

	citesBoost := 0.0
	if strings.Contains(content, "section ") || strings.Contains(content, "g.o.") || strings.Contains(content, "go ms") {
		citesBoost = 0.1
	}
	return matchBoost + citesBoost
}
