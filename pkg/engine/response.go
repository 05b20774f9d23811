package engine

import (
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/answer"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/rerank"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/scoring"
)

// QueryInfo echoes the query and its classification.
type QueryInfo struct {
	Original       string  `json:"original"`
	Mode           string  `json:"mode"`
	ModeConfidence float64 `json:"mode_confidence"`
}

// SearchInfo summarizes the vertical fan-out.
type SearchInfo struct {
	VerticalsSearched []string       `json:"verticals_searched"`
	VerticalCoverage  map[string]int `json:"vertical_coverage"`
	TotalResults      int            `json:"total_results"`
}

// ResultItem is one ranked chunk in the response.
type ResultItem struct {
	Rank       int            `json:"rank"`
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Vertical   string         `json:"vertical"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Highlights []string       `json:"highlights,omitempty"`
}

// PlanSummary is the trace's view of the plan.
type PlanSummary struct {
	Mode            string              `json:"mode"`
	EnhancedQuery   string              `json:"enhanced_query"`
	Verticals       []string            `json:"verticals"`
	VerticalWeights map[string]float64  `json:"vertical_weights"`
	Filters         map[string][]string `json:"filters,omitempty"`
	TopK            int                 `json:"top_k"`
	RerankTop       int                 `json:"rerank_top"`
	Reranker        string              `json:"reranker"`
	EmbeddingModel  string              `json:"embedding_model"`
	UseInternet     bool                `json:"use_internet"`
	TimeoutMS       int64               `json:"timeout_ms"`
}

// Trace carries the execution record for debugging and evaluation.
type Trace struct {
	QueryID             string                 `json:"query_id"`
	Plan                PlanSummary            `json:"plan"`
	Steps               []string               `json:"steps"`
	PredictedCategories []string               `json:"predicted_categories"`
	CoverageReport      *rerank.CoverageReport `json:"coverage_report,omitempty"`
	CacheHits           map[string]int64       `json:"cache_hits,omitempty"`
	TimingMS            int64                  `json:"timing_ms"`
}

// Response is the single struct exposed to the transport layer.
type Response struct {
	Success bool           `json:"success"`
	Query   QueryInfo      `json:"query"`
	Search  SearchInfo     `json:"search"`
	Results []ResultItem   `json:"results"`
	Answer  *answer.Answer `json:"answer,omitempty"`
	Trace   *Trace         `json:"trace,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func planSummary(plan *planner.Plan) PlanSummary {
	verticals := make([]string, len(plan.Verticals))
	for i, v := range plan.Verticals {
		verticals[i] = string(v)
	}
	weights := make(map[string]float64, len(plan.VerticalWeights))
	for v, w := range plan.VerticalWeights {
		weights[string(v)] = w
	}
	return PlanSummary{
		Mode:            string(plan.Mode),
		EnhancedQuery:   plan.EnhancedQuery,
		Verticals:       verticals,
		VerticalWeights: weights,
		Filters:         plan.Filters,
		TopK:            plan.TopK,
		RerankTop:       plan.RerankTop,
		Reranker:        string(plan.Reranker),
		EmbeddingModel:  string(plan.EmbeddingModel),
		UseInternet:     plan.UseInternet,
		TimeoutMS:       plan.Timeout.Milliseconds(),
	}
}

const (
	highlightWindow = 60
	maxHighlights   = 3
)

// highlights extracts short content snippets around query-term matches.
func highlights(content, query string) []string {
	lower := strings.ToLower(content)
	var out []string
	seen := make(map[int]bool)

	for _, term := range scoring.Tokenize(query) {
		if len(out) >= maxHighlights {
			break
		}
		idx := strings.Index(lower, term)
		if idx < 0 {
			continue
		}

		start := idx - highlightWindow
		if start < 0 {
			start = 0
		}
		end := idx + len(term) + highlightWindow
		if end > len(content) {
			end = len(content)
		}
		// One highlight per region.
		region := start / (2 * highlightWindow)
		if seen[region] {
			continue
		}
		seen[region] = true

		snippet := strings.TrimSpace(content[start:end])
		if start > 0 {
			snippet = "…" + snippet
		}
		if end < len(content) {
			snippet += "…"
		}
		out = append(out, snippet)
	}
	return out
}

func resultItems(cands []retrieval.Candidate, query string) []ResultItem {
	items := make([]ResultItem, 0, len(cands))
	for i, c := range cands {
		metadata := c.Metadata
		if c.BM25Boost > 0 || c.Superseded {
			metadata = make(map[string]any, len(c.Metadata)+3)
			for k, v := range c.Metadata {
				metadata[k] = v
			}
			if c.BM25Boost > 0 {
				metadata["bm25_boost"] = c.BM25Boost
			}
			if c.Superseded {
				metadata["superseded"] = true
				metadata["superseded_by"] = c.SupersededBy
			}
		}
		items = append(items, ResultItem{
			Rank:       i + 1,
			ID:         c.ChunkID,
			Text:       c.Content,
			Vertical:   string(c.Vertical),
			Score:      c.EffectiveScore(),
			Metadata:   metadata,
			Highlights: highlights(c.Content, query),
		})
	}
	return items
}
