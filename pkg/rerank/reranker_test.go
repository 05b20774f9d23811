package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/testutils"
)

func cand(id string, v planner.Vertical, content string, score float64) retrieval.Candidate {
	return retrieval.Candidate{ChunkID: id, DocID: id, Vertical: v, Content: content, Score: score}
}

func TestSelect(t *testing.T) {
	policy := NewPolicyReranker(nil, false)
	brainstorm := NewBrainstormReranker()

	assert.Equal(t, "light", Select(planner.RerankerLight, policy, brainstorm).Name())
	assert.Equal(t, "policy", Select(planner.RerankerPolicy, policy, brainstorm).Name())
	assert.Equal(t, "brainstorm", Select(planner.RerankerBrainstorm, policy, brainstorm).Name())
}

func TestLightRerankerEntityBoost(t *testing.T) {
	plan := &planner.Plan{
		Mode:      planner.ModeQA,
		Filters:   map[string][]string{"sections": {"12"}},
		RerankTop: 10,
	}
	cands := []retrieval.Candidate{
		cand("a", planner.VerticalLegal, "General commentary on education law.", 0.6),
		cand("b", planner.VerticalLegal, "Section 12 mandates 25% reservation.", 0.6),
	}

	out := LightReranker{}.Rerank(context.Background(), cands, plan)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ChunkID)
	// +0.1 filter match, +0.1 citation.
	assert.InDelta(t, 0.6*1.2, out[0].RerankScore, 1e-9)
	assert.InDelta(t, 0.6, out[1].RerankScore, 1e-9)
}

func TestEntityBoostCapped(t *testing.T) {
	plan := &planner.Plan{
		Filters: map[string][]string{
			"sections": {"12", "21", "19", "25"},
		},
	}
	c := cand("a", planner.VerticalLegal, "section 12 section 21 section 19 section 25", 1.0)
	// Four matches capped at 0.3, plus 0.1 for citing sections.
	assert.InDelta(t, 0.4, entityBoost(&c, plan), 1e-9)
}

func TestLightRerankerTruncates(t *testing.T) {
	plan := &planner.Plan{Mode: planner.ModeQA, RerankTop: 2}
	cands := []retrieval.Candidate{
		cand("a", planner.VerticalLegal, "x", 0.3),
		cand("b", planner.VerticalLegal, "y", 0.9),
		cand("c", planner.VerticalLegal, "z", 0.6),
	}

	out := LightReranker{}.Rerank(context.Background(), cands, plan)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ChunkID)
	assert.Equal(t, "c", out[1].ChunkID)
}

func TestPolicyRerankerVerticalPriority(t *testing.T) {
	plan := &planner.Plan{Mode: planner.ModeDeepThink, RerankTop: 10}
	cands := []retrieval.Candidate{
		cand("scheme-1", planner.VerticalSchemes, "Scheme details.", 0.8),
		cand("legal-1", planner.VerticalLegal, "Statutory provision.", 0.8),
		cand("go-1", planner.VerticalGO, "Administrative order.", 0.8),
	}

	out := NewPolicyReranker(nil, false).Rerank(context.Background(), cands, plan)
	require.Len(t, out, 3)
	assert.Equal(t, "legal-1", out[0].ChunkID)
	assert.Equal(t, "go-1", out[1].ChunkID)
	assert.Equal(t, "scheme-1", out[2].ChunkID)
}

func TestPolicyRerankerJudgeBlend(t *testing.T) {
	judge := &testutils.ScriptedLLM{Reply: "1: 2\n2: 10"}
	plan := &planner.Plan{
		OriginalQuery: "teacher transfer rules",
		Mode:          planner.ModeDeepThink,
		RerankTop:     10,
	}
	cands := []retrieval.Candidate{
		cand("a", planner.VerticalLegal, "Unrelated statute.", 0.8),
		cand("b", planner.VerticalLegal, "Teacher transfer counselling order.", 0.7),
	}

	out := NewPolicyReranker(judge, true).Rerank(context.Background(), cands, plan)
	require.Len(t, out, 2)
	// Rule scores: a=0.8, b=0.7. Judge grades 2 and 10 blend to
	// a=0.5*0.8+0.1=0.5, b=0.5*0.7+0.5=0.85, flipping the order.
	assert.Equal(t, "b", out[0].ChunkID)
	assert.Equal(t, "a", out[1].ChunkID)
	require.Len(t, judge.Prompts, 1)
	assert.Contains(t, judge.Prompts[0], "teacher transfer rules")
}

func TestPolicyRerankerJudgeFailureKeepsRuleScores(t *testing.T) {
	judge := &testutils.ScriptedLLM{Err: context.DeadlineExceeded}
	plan := &planner.Plan{Mode: planner.ModeDeepThink, RerankTop: 10}
	cands := []retrieval.Candidate{
		cand("a", planner.VerticalLegal, "First.", 0.9),
		cand("b", planner.VerticalLegal, "Second.", 0.4),
	}

	out := NewPolicyReranker(judge, true).Rerank(context.Background(), cands, plan)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.InDelta(t, 0.9, out[0].RerankScore, 1e-9)
}

func TestParseJudgeGrades(t *testing.T) {
	grades := parseJudgeGrades("1: 7\n[2]: 3.5\nnot a grade\n3: 99\n9: 5", 3)
	assert.Equal(t, map[int]float64{0: 7, 1: 3.5}, grades)
}

func TestBrainstormRerankerPenalizesNearDuplicates(t *testing.T) {
	plan := &planner.Plan{Mode: planner.ModeBrainstorm, RerankTop: 10}
	cands := []retrieval.Candidate{
		{ChunkID: "a", Vertical: planner.VerticalSchemes, Content: "Idea one.", Score: 0.9, Vector: []float32{1, 0}},
		{ChunkID: "b", Vertical: planner.VerticalSchemes, Content: "Idea one restated.", Score: 0.8, Vector: []float32{0.99, 0.05}},
		{ChunkID: "c", Vertical: planner.VerticalData, Content: "Different idea.", Score: 0.5, Vector: []float32{0, 1}},
	}

	out := NewBrainstormReranker().Rerank(context.Background(), cands, plan)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, "c", out[1].ChunkID)
	assert.Equal(t, "b", out[2].ChunkID)
	assert.InDelta(t, 0.4, out[2].RerankScore, 1e-9)
}

func TestBrainstormRerankerRewardsGlobalPractice(t *testing.T) {
	plan := &planner.Plan{Mode: planner.ModeBrainstorm, RerankTop: 10}
	cands := []retrieval.Candidate{
		{ChunkID: "a", Content: "Local circular on attendance.", Score: 0.6, Vector: []float32{1, 0}},
		{ChunkID: "b", Content: "Finland uses phenomenon-based learning.", Score: 0.6, Vector: []float32{0, 1}},
	}

	out := NewBrainstormReranker().Rerank(context.Background(), cands, plan)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ChunkID)
	assert.InDelta(t, 0.66, out[0].RerankScore, 1e-9)
}
