// Package retrieval fans a query plan out across the selected verticals,
// fuses dense and keyword scores, and aggregates the per-vertical results
// into one weighted, deduplicated candidate pool.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/embedder"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/internet"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/scoring"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

// Result is the aggregated retrieval output plus trace material.
type Result struct {
	Candidates []Candidate

	// VerticalCoverage counts raw results per searched vertical, including
	// zero entries for verticals that returned nothing.
	VerticalCoverage map[planner.Vertical]int

	// Notes records degraded verticals for the response trace.
	Notes []string
}

// Retriever executes plans against the vector store and optional web search.
type Retriever struct {
	store  vector.Provider
	embeds *embedder.Router
	web    internet.Searcher
	cfg    *config.Config
}

// New creates a retriever. web may be nil when no search backend is
// configured.
func New(store vector.Provider, embeds *embedder.Router, web internet.Searcher, cfg *config.Config) *Retriever {
	return &Retriever{store: store, embeds: embeds, web: web, cfg: cfg}
}

func (r *Retriever) collection(v planner.Vertical) string {
	return r.cfg.VectorStore.CollectionPrefix + string(v)
}

// Retrieve runs the plan's vertical fan-out. Vertical failures degrade to
// empty result sets and a trace note; only embedding failure aborts, since
// nothing can be searched without a query vector.
func (r *Retriever) Retrieve(ctx context.Context, plan *planner.Plan) (*Result, error) {
	class := embedder.ModelFast
	if plan.EmbeddingModel == planner.EmbeddingDeep {
		class = embedder.ModelDeep
	}
	queryVector, err := r.embeds.Select(class).Embed(ctx, plan.EnhancedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	out := &Result{VerticalCoverage: make(map[planner.Vertical]int, len(plan.Verticals))}

	var mu sync.Mutex
	perVertical := make(map[planner.Vertical][]Candidate, len(plan.Verticals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(6)
	for _, v := range plan.Verticals {
		g.Go(func() error {
			var cands []Candidate
			var note string
			if v == planner.VerticalInternet {
				cands, note = r.searchInternet(gctx, plan)
			} else {
				cands, note = r.searchVertical(gctx, plan, v, queryVector)
			}
			mu.Lock()
			perVertical[v] = cands
			out.VerticalCoverage[v] = len(cands)
			if note != "" {
				out.Notes = append(out.Notes, note)
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	out.Candidates = r.aggregate(plan, perVertical)
	return out, nil
}

// searchVertical runs one store search, retrying once outside QA mode.
func (r *Retriever) searchVertical(ctx context.Context, plan *planner.Plan, v planner.Vertical, queryVector []float32) ([]Candidate, string) {
	filter := MapFilters(plan.Filters, v)
	collection := r.collection(v)

	attempts := 1
	if plan.Mode != planner.ModeQA {
		attempts = 2
	}

	var results []vector.Result
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		results, err = r.store.SearchWithFilter(ctx, collection, queryVector, plan.TopK, filter, r.cfg.VectorStore.ScoreThreshold)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		slog.Warn("Vertical search failed", "vertical", v, "error", err)
		return nil, fmt.Sprintf("vertical %s degraded: %v", v, err)
	}

	cands := make([]Candidate, 0, len(results))
	for _, res := range results {
		cands = append(cands, candidateFromResult(res, v))
	}

	if r.hybridEnabled(v) {
		r.fuseKeywordScores(plan, cands)
	}
	return cands, ""
}

func candidateFromResult(res vector.Result, v planner.Vertical) Candidate {
	c := Candidate{
		ChunkID:  res.ID,
		Vertical: v,
		Content:  res.Content,
		Score:    float64(res.Score),
		Vector:   res.Vector,
		Metadata: res.Metadata,
	}
	if docID, ok := res.Metadata["doc_id"].(string); ok {
		c.DocID = docID
	} else {
		c.DocID = res.ID
	}
	if chunkID, ok := res.Metadata["chunk_id"].(string); ok && chunkID != "" {
		c.ChunkID = chunkID
	}
	return c
}

func (r *Retriever) hybridEnabled(v planner.Vertical) bool {
	if !r.cfg.Features.HybridSearch {
		return false
	}
	allowed := r.cfg.Features.HybridVerticals
	if len(allowed) == 0 {
		return true
	}
	for _, name := range allowed {
		if name == string(v) {
			return true
		}
	}
	return false
}

// fuseKeywordScores replaces each candidate's dense score with
// alpha*dense + (1-alpha)*normalized_bm25 over the returned set.
func (r *Retriever) fuseKeywordScores(plan *planner.Plan, cands []Candidate) {
	if len(cands) == 0 {
		return
	}
	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.Content
	}
	bm25Scores := scoring.MinMaxNormalize(scoring.NewBM25(docs).ScoreAll(plan.EnhancedQuery))

	alpha := float64(r.cfg.Retrieval.HybridAlpha)
	for i := range cands {
		cands[i].Score = alpha*cands[i].Score + (1-alpha)*bm25Scores[i]
	}
}

func (r *Retriever) searchInternet(ctx context.Context, plan *planner.Plan) ([]Candidate, string) {
	if r.web == nil {
		return nil, "internet search skipped: no backend configured"
	}
	hits, err := r.web.Search(ctx, plan.NormalizedQuery)
	if err != nil {
		slog.Warn("Internet search failed", "error", err)
		return nil, fmt.Sprintf("internet search degraded: %v", err)
	}

	cands := make([]Candidate, 0, len(hits))
	for i, hit := range hits {
		score := hit.Score
		if score <= 0 {
			// SearxNG scores are optional; fall back to rank order.
			score = 1.0 / float64(i+1)
		}
		cands = append(cands, Candidate{
			ChunkID:  fmt.Sprintf("web-%d", i+1),
			DocID:    hit.URL,
			Vertical: planner.VerticalInternet,
			Content:  hit.Content,
			Score:    score,
			Metadata: map[string]any{
				"title":  hit.Title,
				"url":    hit.URL,
				"source": "internet",
			},
		})
	}
	return cands, ""
}

// aggregate applies vertical weights, dedupes by chunk ID keeping the
// max-scored occurrence, and orders the pool. Brainstorm mode swaps the
// plain sort for MMR selection over dense vectors.
func (r *Retriever) aggregate(plan *planner.Plan, perVertical map[planner.Vertical][]Candidate) []Candidate {
	byChunk := make(map[string]Candidate)
	for v, cands := range perVertical {
		weight, ok := plan.VerticalWeights[v]
		if !ok {
			weight = 1.0
		}
		for _, c := range cands {
			c.Score *= weight
			if prev, exists := byChunk[c.ChunkID]; !exists || c.Score > prev.Score {
				byChunk[c.ChunkID] = c
			}
		}
	}

	pooled := make([]Candidate, 0, len(byChunk))
	for _, c := range byChunk {
		pooled = append(pooled, c)
	}
	sort.Slice(pooled, func(i, j int) bool {
		if pooled[i].Score != pooled[j].Score {
			return pooled[i].Score > pooled[j].Score
		}
		return pooled[i].ChunkID < pooled[j].ChunkID
	})

	if plan.Mode == planner.ModeBrainstorm && len(pooled) > 0 {
		vectors := make([][]float32, len(pooled))
		relevance := make([]float64, len(pooled))
		for i, c := range pooled {
			vectors[i] = c.Vector
			relevance[i] = c.Score
		}
		selected := scoring.MMRSelect(vectors, relevance, plan.TopK, float64(r.cfg.Retrieval.MMRLambda))
		diverse := make([]Candidate, 0, len(selected))
		for _, idx := range selected {
			diverse = append(diverse, pooled[idx])
		}
		return diverse
	}
	return pooled
}
