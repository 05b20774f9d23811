package rerank

import (
	"context"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

// LightReranker applies entity and citation boosts only. No external calls;
// this is the QA path and must stay cheap.
type LightReranker struct{}

// Name identifies the strategy.
func (LightReranker) Name() string { return "light" }

// Rerank boosts and truncates.
func (LightReranker) Rerank(_ context.Context, cands []retrieval.Candidate, plan *planner.Plan) []retrieval.Candidate {
	for i := range cands {
		cands[i].RerankScore = cands[i].Score * (1 + entityBoost(&cands[i], plan))
	}
	return sortAndTruncate(cands, plan.RerankTop)
}

// Ensure LightReranker implements Reranker.
var _ Reranker = LightReranker{}
