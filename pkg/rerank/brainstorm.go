package rerank

import (
	"context"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/scoring"
)

const nearDuplicateThreshold = 0.85

var globalKeywords = []string{
	"global", "international", "best practice", "best practices",
	"world", "unesco", "oecd", "finland", "singapore", "model",
}

// BrainstormReranker pushes diversity: near-duplicates of higher-ranked
// candidates are halved, and content referencing global or international
// practice is rewarded.
type BrainstormReranker struct{}

// NewBrainstormReranker creates the brainstorm reranker.
func NewBrainstormReranker() *BrainstormReranker {
	return &BrainstormReranker{}
}

// Name identifies the strategy.
func (*BrainstormReranker) Name() string { return "brainstorm" }

// Rerank penalizes duplicates, rewards breadth, and truncates.
func (*BrainstormReranker) Rerank(_ context.Context, cands []retrieval.Candidate, plan *planner.Plan) []retrieval.Candidate {
	for i := range cands {
		score := cands[i].Score

		content := strings.ToLower(cands[i].Content)
		for _, kw := range globalKeywords {
			if strings.Contains(content, kw) {
				score *= 1.1
				break
			}
		}
		cands[i].RerankScore = score
	}

	// Order first so the penalty always favors the stronger duplicate.
	cands = sortAndTruncate(cands, 0)
	for i := range cands {
		if len(cands[i].Vector) == 0 {
			continue
		}
		for j := 0; j < i; j++ {
			if scoring.Cosine(cands[i].Vector, cands[j].Vector) > nearDuplicateThreshold {
				cands[i].RerankScore *= 0.5
				break
			}
		}
	}
	return sortAndTruncate(cands, plan.RerankTop)
}

// Ensure BrainstormReranker implements Reranker.
var _ Reranker = (*BrainstormReranker)(nil)
