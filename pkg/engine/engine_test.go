package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/answer"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/embedder"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/llms"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/testutils"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

var corpus = []testutils.Chunk{
	{
		ID: "legal-1", Vertical: "legal",
		Content: "Section 12 of the RTE Act mandates 25% free admission for disadvantaged groups in private schools.",
		Metadata: map[string]any{
			"doc_id": "rte-act", "act_name": "Right to Education Act",
			"section": "12", "sections": []any{"12"}, "year": "2009",
		},
	},
	{
		ID: "legal-2", Vertical: "legal",
		Content: "Section 21 constitutes school management committees for every government school.",
		Metadata: map[string]any{
			"doc_id": "rte-act", "act_name": "Right to Education Act",
			"section": "21", "sections": []any{"21"}, "year": "2009",
		},
	},
	{
		ID: "go-old", Vertical: "go",
		Content: "Teacher transfer counselling order with the earlier station seniority rules.",
		Metadata: map[string]any{
			"doc_id": "go-old", "go_number": "26", "year": "2019",
			"source": "School Education Department",
		},
	},
	{
		ID: "go-new", Vertical: "go",
		Content: "Revised teacher transfer counselling order with updated station seniority rules.",
		Metadata: map[string]any{
			"doc_id": "go-new", "go_number": "54", "year": "2021",
			"source": "School Education Department",
			"relations": []any{
				map[string]any{"relation_type": "supersedes", "target": "26"},
			},
		},
	},
	{
		ID: "schemes-1", Vertical: "schemes",
		Content: "Amma Vodi provides an annual amount to mothers sending children to school.",
		Metadata: map[string]any{
			"doc_id": "amma-vodi", "scheme_name": "Amma Vodi", "year": "2020",
		},
	},
}

func newTestEngine(t *testing.T, synth llms.Synthesizer) *Engine {
	t.Helper()
	cfg := testutils.Config()
	store := vector.NewMemoryProvider()
	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	require.NoError(t, err)
	require.NoError(t, testutils.Seed(context.Background(), store, embeds.Select(embedder.ModelFast), cfg.VectorStore.CollectionPrefix, corpus))
	return NewWithBackends(cfg, store, embeds, synth, nil)
}

func TestQuerySectionLookup(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Section 12 requires a 25% quota for disadvantaged groups [1]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{Query: "What is Section 12 of RTE Act?"})
	require.True(t, resp.Success, resp.Error)

	assert.Equal(t, "qa", resp.Query.Mode)
	assert.GreaterOrEqual(t, resp.Query.ModeConfidence, 0.85)
	assert.Contains(t, resp.Search.VerticalsSearched, "legal")

	// The section filter narrows results to the Section 12 chunk.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "legal-1", resp.Results[0].ID)
	assert.Equal(t, 1, resp.Results[0].Rank)

	require.NotNil(t, resp.Answer)
	assert.Equal(t, []int{1}, resp.Answer.Citations)
	require.Len(t, resp.Answer.Bibliography, 1)
	assert.Equal(t, "Right to Education Act, Section 12 (2009)", resp.Answer.Bibliography[0].DisplayName)
	assert.Greater(t, resp.Answer.Confidence, 0.0)
}

func TestQueryEmptyIsBadRequest(t *testing.T) {
	e := newTestEngine(t, nil)
	resp := e.Query(context.Background(), Request{Query: "   "})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "bad request")
}

func TestQueryUnknownModeIsBadRequest(t *testing.T) {
	e := newTestEngine(t, nil)
	resp := e.Query(context.Background(), Request{Query: "anything", Mode: "chat"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown mode")
}

func TestQueryDropsSupersededOrders(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Transfers follow the revised counselling order [1]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{Query: "government order on teacher transfer counselling"})
	require.True(t, resp.Success, resp.Error)

	ids := make([]string, 0, len(resp.Results))
	for _, item := range resp.Results {
		ids = append(ids, item.ID)
	}
	assert.Contains(t, ids, "go-new")
	assert.NotContains(t, ids, "go-old")
}

func TestQueryDeepThinkKeepsSupersededAnnotated(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "The earlier order [1] was replaced by the revised one [2]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{
		Query: "government order on teacher transfer counselling",
		Mode:  "deep_think",
	})
	require.True(t, resp.Success, resp.Error)

	var old *ResultItem
	for i := range resp.Results {
		if resp.Results[i].ID == "go-old" {
			old = &resp.Results[i]
		}
	}
	require.NotNil(t, old, "superseded order must stay visible in deep_think")
	assert.Equal(t, true, old.Metadata["superseded"])
	assert.Equal(t, "go-new", old.Metadata["superseded_by"])
}

func TestQueryInternetSkipNote(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Answer [1]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{
		Query:       "latest teacher recruitment notification",
		UseInternet: true,
	})
	require.True(t, resp.Success, resp.Error)
	require.NotNil(t, resp.Trace)
	assert.Contains(t, resp.Trace.Steps, "internet search skipped: no backend configured")
}

func TestQueryDeterministic(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Answer [1]."}
	e := newTestEngine(t, llm)
	req := Request{Query: "teacher transfer counselling order"}

	first := e.Query(context.Background(), req)
	second := e.Query(context.Background(), req)
	require.True(t, first.Success)
	require.True(t, second.Success)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].ID, second.Results[i].ID)
	}
	assert.Equal(t, first.Answer.Text, second.Answer.Text)
}

func TestQueryLLMFailureDegrades(t *testing.T) {
	llm := &testutils.ScriptedLLM{Err: errors.New("provider down")}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{Query: "What is Section 12 of RTE Act?"})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, answer.NoAnswerText, resp.Answer.Text)
	assert.Zero(t, resp.Answer.Confidence)
	// Sources survive even when generation fails.
	assert.NotEmpty(t, resp.Answer.Bibliography)
	assert.NotEmpty(t, resp.Results)
}

func TestQueryWithoutLLM(t *testing.T) {
	e := newTestEngine(t, nil)
	resp := e.Query(context.Background(), Request{Query: "What is Section 12 of RTE Act?"})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, answer.NoAnswerText, resp.Answer.Text)
	assert.NotEmpty(t, resp.Results)
}

func TestQueryTracePopulated(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Answer [1]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{Query: "What is Section 12 of RTE Act?"})
	require.True(t, resp.Success, resp.Error)
	require.NotNil(t, resp.Trace)

	assert.NotEmpty(t, resp.Trace.QueryID)
	assert.NotEmpty(t, resp.Trace.Steps)
	assert.Equal(t, "qa", resp.Trace.Plan.Mode)
	assert.NotNil(t, resp.Trace.CoverageReport)
	assert.Contains(t, resp.Trace.CacheHits, "embedding_misses")
	assert.GreaterOrEqual(t, resp.Trace.TimingMS, int64(0))
}

func TestQueryPassesHistoryAndUploads(t *testing.T) {
	llm := &testutils.ScriptedLLM{Reply: "Follow-up answer [1]."}
	e := newTestEngine(t, llm)

	resp := e.Query(context.Background(), Request{
		Query:   "What is Section 12 of RTE Act?",
		History: []answer.Turn{{Role: "user", Content: "earlier question about schools"}},
		Uploads: []answer.Upload{{Name: "notes.txt", Content: "district-level notes"}},
	})
	require.True(t, resp.Success, resp.Error)
	require.NotEmpty(t, llm.Prompts)
	assert.Contains(t, llm.Prompts[0], "earlier question about schools")
	assert.Contains(t, llm.Prompts[0], "district-level notes")
}

func TestWarm(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.Warm(context.Background()))

	// The graph is built once; superseded lookups are immediate afterwards.
	resp := e.Query(context.Background(), Request{Query: "government order on teacher transfer counselling"})
	require.True(t, resp.Success, resp.Error)
}

func TestClose(t *testing.T) {
	e := newTestEngine(t, nil)
	assert.NoError(t, e.Close())
}
