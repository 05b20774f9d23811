package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/answer"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/rerank"
)

// Request is one query to the engine.
type Request struct {
	Query string
	// Mode is an explicit mode override: qa, deep_think, or brainstorm.
	// Empty means classify.
	Mode string
	// UseInternet forces the web pseudo-vertical on.
	UseInternet bool

	History []answer.Turn
	Uploads []answer.Upload
}

// Query runs the full pipeline: plan, retrieve, filter, rerank, boost,
// enforce coverage, compose. Vertical and backend failures degrade; only
// invalid input and planning failures produce an unsuccessful response.
func (e *Engine) Query(ctx context.Context, req Request) *Response {
	start := time.Now()
	queryID := uuid.NewString()

	ctx, span := e.tracer.Start(ctx, "engine.query")
	defer span.End()

	resp, mode := e.execute(ctx, queryID, req)
	span.SetAttributes(
		attribute.String("query.id", queryID),
		attribute.String("query.mode", string(mode)),
		attribute.Bool("query.success", resp.Success),
	)

	var qErr error
	if !resp.Success {
		qErr = errors.New(resp.Error)
	}
	observability.GetGlobalMetrics().RecordQuery(string(mode), time.Since(start), qErr)
	if resp.Trace != nil {
		resp.Trace.TimingMS = time.Since(start).Milliseconds()
	}
	return resp
}

func (e *Engine) execute(ctx context.Context, queryID string, req Request) (*Response, planner.Mode) {
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(req, "query must not be empty"), ""
	}
	mode, ok := planner.ParseMode(req.Mode)
	if !ok {
		return badRequest(req, fmt.Sprintf("unknown mode %q", req.Mode)), ""
	}

	plan, err := e.planner.BuildPlan(planner.Request{
		Query:       req.Query,
		Mode:        mode,
		UseInternet: req.UseInternet,
	})
	if err != nil {
		return badRequest(req, err.Error()), mode
	}

	trace := &Trace{
		QueryID:             queryID,
		Plan:                planSummary(plan),
		PredictedCategories: plan.PredictedCategories,
	}
	step := func(format string, args ...any) {
		trace.Steps = append(trace.Steps, fmt.Sprintf(format, args...))
	}
	step("plan built: mode=%s confidence=%.2f verticals=%v", plan.Mode, plan.ModeConfidence, plan.Verticals)

	resp := &Response{
		Success: true,
		Query: QueryInfo{
			Original:       req.Query,
			Mode:           string(plan.Mode),
			ModeConfidence: plan.ModeConfidence,
		},
		Trace: trace,
	}

	qctx, cancel := context.WithTimeout(ctx, plan.Timeout)
	defer cancel()

	retrieved, err := e.retriever.Retrieve(qctx, plan)
	if err != nil {
		// Embedding failed; nothing can be searched.
		resp.Success = false
		resp.Error = fmt.Sprintf("retrieval failed: %v", err)
		step("retrieval aborted: %v", err)
		return resp, plan.Mode
	}
	trace.Steps = append(trace.Steps, retrieved.Notes...)
	if qctx.Err() != nil {
		step("deadline reached during retrieval, continuing with partial results")
	}

	metrics := observability.GetGlobalMetrics()
	resp.Search.VerticalCoverage = make(map[string]int, len(retrieved.VerticalCoverage))
	for _, v := range plan.Verticals {
		resp.Search.VerticalsSearched = append(resp.Search.VerticalsSearched, string(v))
		count := retrieved.VerticalCoverage[v]
		resp.Search.VerticalCoverage[string(v)] = count
		metrics.RecordVerticalSearch(string(v), count, count == 0)
	}
	step("retrieved %d candidates from %d verticals", len(retrieved.Candidates), len(plan.Verticals))

	cands := e.superseder.Apply(qctx, retrieved.Candidates, plan.Mode)
	if dropped := len(retrieved.Candidates) - len(cands); dropped > 0 {
		step("supersession filter removed %d candidates", dropped)
	}

	reranker := rerank.Select(plan.Reranker, e.policy, e.brainstorm)
	cands = reranker.Rerank(qctx, cands, plan)
	step("reranker %s kept %d candidates", reranker.Name(), len(cands))

	cands = e.booster.Boost(cands, plan.NormalizedQuery)

	final, coverageReport := e.coverage.Enforce(cands, plan, plan.MaxContextChunks)
	trace.CoverageReport = coverageReport
	step("coverage enforcement selected %d of %d candidates (coverage %.2f)",
		len(final), len(cands), coverageReport.CoverageScore)

	resp.Results = resultItems(final, plan.NormalizedQuery)
	resp.Search.TotalResults = len(resp.Results)

	resp.Answer = e.composer.Compose(qctx, answer.Input{
		Plan:       plan,
		Candidates: final,
		History:    req.History,
		Uploads:    req.Uploads,
	})
	if resp.Answer.Confidence == 0 {
		step("answer generation degraded")
	}

	hits, misses := e.embeds.CacheStats()
	trace.CacheHits = map[string]int64{
		"embedding_hits":   hits,
		"embedding_misses": misses,
	}
	return resp, plan.Mode
}

func badRequest(req Request, msg string) *Response {
	return &Response{
		Success: false,
		Query:   QueryInfo{Original: req.Query, Mode: req.Mode},
		Error:   fmt.Sprintf("%s: %s", ErrBadRequest, msg),
	}
}
