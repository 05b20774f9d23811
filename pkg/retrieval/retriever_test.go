package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/embedder"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/internet"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/testutils"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

type retrieverFixture struct {
	store     *vector.MemoryProvider
	retriever *Retriever
	cfg       *config.Config
}

func newFixture(t *testing.T, web internet.Searcher) *retrieverFixture {
	t.Helper()
	cfg := testutils.Config()
	store := vector.NewMemoryProvider()
	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	require.NoError(t, err)

	chunks := []testutils.Chunk{
		{ID: "legal-1", Vertical: "legal", Content: "Section 12 of the RTE Act mandates free admission for disadvantaged groups.",
			Metadata: map[string]any{"sections": []any{"12"}, "year": "2009"}},
		{ID: "legal-2", Vertical: "legal", Content: "Section 21 constitutes school management committees.",
			Metadata: map[string]any{"sections": []any{"21"}, "year": "2009"}},
		{ID: "go-1", Vertical: "go", Content: "G.O. Ms. No. 26 regulates teacher transfers through counselling.",
			Metadata: map[string]any{"go_number": "26", "year": "2019"}},
	}
	require.NoError(t, testutils.Seed(context.Background(), store, embeds.Select(embedder.ModelFast), cfg.VectorStore.CollectionPrefix, chunks))

	return &retrieverFixture{
		store:     store,
		retriever: New(store, embeds, web, cfg),
		cfg:       cfg,
	}
}

func qaPlan(query string, verticals ...planner.Vertical) *planner.Plan {
	weights := make(map[planner.Vertical]float64, len(verticals))
	for _, v := range verticals {
		weights[v] = 1.0 / float64(len(verticals))
	}
	return &planner.Plan{
		OriginalQuery:   query,
		NormalizedQuery: query,
		EnhancedQuery:   query,
		Mode:            planner.ModeQA,
		Verticals:       verticals,
		VerticalWeights: weights,
		TopK:            10,
	}
}

func TestRetrieveTagsVerticals(t *testing.T) {
	fx := newFixture(t, nil)
	plan := qaPlan("section 12 free admission", planner.VerticalLegal, planner.VerticalGO)

	result, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	require.NotEmpty(t, result.Candidates)

	for _, c := range result.Candidates {
		switch c.ChunkID {
		case "legal-1", "legal-2":
			assert.Equal(t, planner.VerticalLegal, c.Vertical)
		case "go-1":
			assert.Equal(t, planner.VerticalGO, c.Vertical)
		default:
			t.Fatalf("unexpected candidate %s", c.ChunkID)
		}
	}

	assert.Contains(t, result.VerticalCoverage, planner.VerticalLegal)
	assert.Contains(t, result.VerticalCoverage, planner.VerticalGO)
	assert.Empty(t, result.Notes)
}

func TestRetrieveAppliesFilters(t *testing.T) {
	fx := newFixture(t, nil)
	plan := qaPlan("what does section 12 say", planner.VerticalLegal)
	plan.Filters = map[string][]string{"sections": {"12"}}

	result, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "legal-1", result.Candidates[0].ChunkID)
}

func TestRetrieveAppliesVerticalWeights(t *testing.T) {
	fx := newFixture(t, nil)
	fx.cfg.Features.HybridSearch = false

	plan := qaPlan("section 12 free admission", planner.VerticalLegal)
	plan.VerticalWeights = map[planner.Vertical]float64{planner.VerticalLegal: 0.5}

	weighted, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	plan.VerticalWeights = map[planner.Vertical]float64{planner.VerticalLegal: 1.0}
	unweighted, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	require.NotEmpty(t, weighted.Candidates)
	require.NotEmpty(t, unweighted.Candidates)
	assert.InDelta(t, unweighted.Candidates[0].Score*0.5, weighted.Candidates[0].Score, 1e-9)
}

func TestRetrieveSortsDeterministically(t *testing.T) {
	fx := newFixture(t, nil)
	plan := qaPlan("education policy sections", planner.VerticalLegal, planner.VerticalGO)

	first, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	second, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	require.Equal(t, len(first.Candidates), len(second.Candidates))
	for i := range first.Candidates {
		assert.Equal(t, first.Candidates[i].ChunkID, second.Candidates[i].ChunkID)
	}
	for i := 1; i < len(first.Candidates); i++ {
		assert.GreaterOrEqual(t, first.Candidates[i-1].Score, first.Candidates[i].Score)
	}
}

func TestRetrieveInternetSkippedWithoutBackend(t *testing.T) {
	fx := newFixture(t, nil)
	plan := qaPlan("latest education policy", planner.VerticalLegal, planner.VerticalInternet)
	plan.UseInternet = true

	result, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	assert.Contains(t, result.Notes, "internet search skipped: no backend configured")
	assert.Zero(t, result.VerticalCoverage[planner.VerticalInternet])
}

type scriptedSearcher struct {
	hits []internet.Result
	err  error
}

func (s *scriptedSearcher) Search(context.Context, string) ([]internet.Result, error) {
	return s.hits, s.err
}

func TestRetrieveInternetResults(t *testing.T) {
	web := &scriptedSearcher{hits: []internet.Result{
		{Title: "NEP update", URL: "https://example.org/nep", Content: "National education policy revision announced."},
		{Title: "Budget note", URL: "https://example.org/budget", Content: "Education budget allocations for the year."},
	}}
	fx := newFixture(t, web)
	plan := qaPlan("latest education policy", planner.VerticalInternet)
	plan.UseInternet = true

	result, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	first := result.Candidates[0]
	assert.Equal(t, planner.VerticalInternet, first.Vertical)
	assert.Equal(t, "https://example.org/nep", first.DocID)
	assert.Equal(t, "NEP update", first.Metadata["title"])
	// No backend scores; rank order decides.
	assert.Greater(t, first.Score, result.Candidates[1].Score)
}

func TestRetrieveInternetFailureDegrades(t *testing.T) {
	web := &scriptedSearcher{err: errors.New("searx unreachable")}
	fx := newFixture(t, web)
	plan := qaPlan("latest education policy", planner.VerticalLegal, planner.VerticalInternet)
	plan.UseInternet = true

	result, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Candidates)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "internet search degraded")
}

// failingProvider errors on every search to exercise vertical degradation.
type failingProvider struct {
	*vector.MemoryProvider
	calls int
}

func (f *failingProvider) SearchWithFilter(context.Context, string, []float32, int, *vector.Filter, float32) ([]vector.Result, error) {
	f.calls++
	return nil, errors.New("store offline")
}

func TestRetrieveVerticalFailureDegrades(t *testing.T) {
	cfg := testutils.Config()
	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	require.NoError(t, err)

	store := &failingProvider{MemoryProvider: vector.NewMemoryProvider()}
	r := New(store, embeds, nil, cfg)

	plan := qaPlan("anything", planner.VerticalLegal)
	result, err := r.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, result.VerticalCoverage[planner.VerticalLegal])
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "vertical legal degraded")
	assert.Equal(t, 1, store.calls)
}

func TestRetrieveRetriesOutsideQA(t *testing.T) {
	cfg := testutils.Config()
	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	require.NoError(t, err)

	store := &failingProvider{MemoryProvider: vector.NewMemoryProvider()}
	r := New(store, embeds, nil, cfg)

	plan := qaPlan("anything", planner.VerticalLegal)
	plan.Mode = planner.ModeDeepThink

	_, err = r.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestRetrieveDedupesKeepingMax(t *testing.T) {
	cfg := testutils.Config()
	cfg.Features.HybridSearch = false
	store := vector.NewMemoryProvider()
	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	require.NoError(t, err)

	// Same chunk_id indexed in two verticals; the aggregate keeps the
	// higher weighted score only.
	content := "Section 12 admission quota implementation order."
	vec, err := embeds.Select(embedder.ModelFast).Embed(context.Background(), content)
	require.NoError(t, err)
	meta := map[string]any{"content": content, "chunk_id": "shared-1"}
	require.NoError(t, store.Upsert(context.Background(), cfg.VectorStore.CollectionPrefix+"legal", "a", vec, meta))
	require.NoError(t, store.Upsert(context.Background(), cfg.VectorStore.CollectionPrefix+"go", "b", vec, meta))

	r := New(store, embeds, nil, cfg)
	plan := qaPlan(content, planner.VerticalLegal, planner.VerticalGO)
	plan.VerticalWeights = map[planner.Vertical]float64{
		planner.VerticalLegal: 0.9,
		planner.VerticalGO:    0.1,
	}

	result, err := r.Retrieve(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "shared-1", result.Candidates[0].ChunkID)
	assert.Equal(t, planner.VerticalLegal, result.Candidates[0].Vertical)
}

func TestRetrieveHybridFusionChangesScores(t *testing.T) {
	fx := newFixture(t, nil)
	plan := qaPlan("counselling transfers", planner.VerticalGO)

	fx.cfg.Features.HybridSearch = false
	denseOnly, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	fx.cfg.Features.HybridSearch = true
	fx.cfg.Features.HybridVerticals = nil
	hybrid, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	require.NotEmpty(t, denseOnly.Candidates)
	require.NotEmpty(t, hybrid.Candidates)
	assert.NotEqual(t, denseOnly.Candidates[0].Score, hybrid.Candidates[0].Score)
}

func TestRetrieveHybridVerticalAllowlist(t *testing.T) {
	fx := newFixture(t, nil)
	fx.cfg.Features.HybridSearch = true
	fx.cfg.Features.HybridVerticals = []string{"legal"}

	plan := qaPlan("counselling transfers", planner.VerticalGO)
	restricted, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	fx.cfg.Features.HybridSearch = false
	denseOnly, err := fx.retriever.Retrieve(context.Background(), plan)
	require.NoError(t, err)

	require.Equal(t, len(denseOnly.Candidates), len(restricted.Candidates))
	for i := range restricted.Candidates {
		assert.Equal(t, denseOnly.Candidates[i].Score, restricted.Candidates[i].Score)
	}
}
