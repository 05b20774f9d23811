package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/llms"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

// Statutory text outranks administrative orders, which outrank case law and
// supporting material.
var verticalMultipliers = map[planner.Vertical]float64{
	planner.VerticalLegal:    1.00,
	planner.VerticalGO:       0.95,
	planner.VerticalJudicial: 0.90,
	planner.VerticalData:     0.85,
	planner.VerticalSchemes:  0.80,
	planner.VerticalInternet: 0.75,
}

// PolicyReranker layers a vertical-priority multiplier over the light rules,
// with an optional LLM judge pass for DeepThink queries.
type PolicyReranker struct {
	judge     llms.Synthesizer
	llmRerank bool
}

// NewPolicyReranker creates the policy reranker. judge may be nil; the LLM
// pass then silently degrades to rule-only scoring.
func NewPolicyReranker(judge llms.Synthesizer, llmRerank bool) *PolicyReranker {
	return &PolicyReranker{judge: judge, llmRerank: llmRerank}
}

// Name identifies the strategy.
func (r *PolicyReranker) Name() string { return "policy" }

// Rerank applies rules, the optional judge, and truncation.
func (r *PolicyReranker) Rerank(ctx context.Context, cands []retrieval.Candidate, plan *planner.Plan) []retrieval.Candidate {
	for i := range cands {
		mult, ok := verticalMultipliers[cands[i].Vertical]
		if !ok {
			mult = 0.75
		}
		cands[i].RerankScore = cands[i].Score * (1 + entityBoost(&cands[i], plan)) * mult
	}

	if r.llmRerank && r.judge != nil {
		judgePool := plan.RerankTop * 2
		sorted := sortAndTruncate(cands, judgePool)
		r.judgeScores(ctx, sorted, plan)
		return sortAndTruncate(sorted, plan.RerankTop)
	}
	return sortAndTruncate(cands, plan.RerankTop)
}

// judgeScores asks the LLM to grade each candidate's relevance 0-10 and
// blends the grade into the rule score. Any failure leaves scores untouched.
func (r *PolicyReranker) judgeScores(ctx context.Context, cands []retrieval.Candidate, plan *planner.Plan) {
	if len(cands) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Rate each passage's relevance to the question on a 0-10 scale.\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", plan.OriginalQuery)
	for i, c := range cands {
		body := c.Content
		if len(body) > 400 {
			body = body[:400]
		}
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, body)
	}
	sb.WriteString("Reply with one line per passage, formatted as \"<number>: <score>\". Nothing else.")

	resp, err := r.judge.Generate(ctx, llms.Request{
		TaskType:    "rerank",
		Prompt:      sb.String(),
		Temperature: 0.0,
		MaxTokens:   20 * len(cands),
	})
	if err != nil {
		slog.Warn("LLM rerank failed, keeping rule scores", "error", err)
		return
	}

	grades := parseJudgeGrades(resp.Text, len(cands))
	for i := range cands {
		if grade, ok := grades[i]; ok {
			// Blend: half rules, half judge.
			cands[i].RerankScore = 0.5*cands[i].RerankScore + 0.5*(grade/10.0)
		}
	}
}

func parseJudgeGrades(text string, n int) map[int]float64 {
	grades := make(map[int]float64, n)
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(strings.Trim(parts[0], "[] "))
		if err != nil || idx < 1 || idx > n {
			continue
		}
		grade, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || grade < 0 || grade > 10 {
			continue
		}
		grades[idx-1] = grade
	}
	return grades
}

// Ensure PolicyReranker implements Reranker.
var _ Reranker = (*PolicyReranker)(nil)
