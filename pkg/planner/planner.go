// Package planner turns a raw query into an immutable execution plan:
// normalization, entity extraction, intent classification, category
// prediction, vertical routing, and the knobs the retrieval pipeline
// consumes.
package planner

import (
	"fmt"
	"strings"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// Request is the caller's input to plan building.
type Request struct {
	Query string
	// Mode overrides classification when non-empty.
	Mode Mode
	// UseInternet forces the internet pseudo-vertical on.
	UseInternet bool
}

// Planner composes the planning stages. Stateless and safe for concurrent
// use.
type Planner struct {
	cfg *config.Config
}

// New creates a planner over the loaded configuration.
func New(cfg *config.Config) *Planner {
	return &Planner{cfg: cfg}
}

// Domain synonyms appended to the enhanced query when the source term is
// present. Closed dictionary; keep small or the embedding drifts.
var domainSynonyms = map[string]string{
	"teacher":        "educator staff",
	"school":         "educational institution",
	"student":        "pupil learner",
	"infrastructure": "facilities buildings",
	"scheme":         "welfare program",
	"exam":           "examination assessment",
}

var recencyTriggers = []string{
	"latest", "recent", "current", "news", "today", "now",
	"2024", "2025", "2026", "this year", "upcoming",
}

// BuildPlan runs the full planning pipeline for one query.
func (p *Planner) BuildPlan(req Request) (*Plan, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", ErrEmptyQuery)
	}

	normalized := Normalize(req.Query)
	entities := Extract(normalized)

	mode, confidence, signals, err := Classify(normalized, entities, req.Mode)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	categories := PredictCategories(normalized, mode)
	verticals, weights := Route(normalized, entities, mode, signals)

	plan := &Plan{
		OriginalQuery:   req.Query,
		NormalizedQuery: normalized,
		Mode:            mode,
		ModeConfidence:  confidence,
		Signals:         signals,
		Verticals:       verticals,
		VerticalWeights: weights,
		Entities:        entities,
		Filters:         buildFilters(entities),

		PredictedCategories: categories,
		IncludeCitations:    true,
		Timeout:             p.cfg.ModeTimeout(string(mode)),
	}

	p.applyModeDefaults(plan)
	plan.EnhancedQuery = enhanceQuery(normalized, entities, mode)
	p.applyDynamicTopK(plan)
	plan.UseInternet = p.decideInternet(plan, req.UseInternet)
	if plan.UseInternet {
		plan.Verticals = append(plan.Verticals, VerticalInternet)
	}
	return plan, nil
}

func (p *Planner) applyModeDefaults(plan *Plan) {
	r := p.cfg.Retrieval
	switch plan.Mode {
	case ModeDeepThink:
		plan.TopK = r.DeepTopK
		plan.RerankTop = r.RerankTop.DeepThink
		plan.MaxContextChunks = r.MaxContextChunks.DeepThink
		plan.EmbeddingModel = EmbeddingDeep
		plan.Reranker = RerankerPolicy
		plan.Style = StyleDeepPolicy
	case ModeBrainstorm:
		plan.TopK = r.BrainstormTopK
		plan.RerankTop = r.RerankTop.Brainstorm
		plan.MaxContextChunks = r.MaxContextChunks.Brainstorm
		plan.EmbeddingModel = EmbeddingDeep
		plan.Reranker = RerankerBrainstorm
		plan.Style = StyleExploratory
	default:
		plan.TopK = r.QATopK
		plan.RerankTop = r.RerankTop.QA
		plan.MaxContextChunks = r.MaxContextChunks.QA
		plan.EmbeddingModel = EmbeddingFast
		plan.Reranker = RerankerLight
		plan.Style = StyleConcise
	}
}

// buildFilters converts extracted entities into logical filters. Only fields
// the retriever knows how to map are emitted.
func buildFilters(entities map[string][]Entity) map[string][]string {
	filters := make(map[string][]string)
	if sections := UniqueNormalized(entities[EntitySection]); len(sections) > 0 {
		filters["sections"] = sections
	}
	if gos := UniqueNormalized(entities[EntityGONumber]); len(gos) > 0 {
		filters["go_number"] = gos
	}
	if years := UniqueNormalized(entities[EntityYear]); len(years) > 0 {
		filters["year"] = years
	}
	return filters
}

func enhanceQuery(normalized string, entities map[string][]Entity, mode Mode) string {
	var sb strings.Builder
	sb.WriteString(normalized)

	seen := make(map[string]bool)
	for _, kind := range []string{EntitySection, EntityGONumber, EntityActName, EntityCaseNumber} {
		for _, e := range entities[kind] {
			if seen[e.Normalized] || strings.Contains(normalized, strings.ToLower(e.Normalized)) {
				continue
			}
			seen[e.Normalized] = true
			sb.WriteString(" ")
			sb.WriteString(strings.ToLower(e.Normalized))
		}
	}

	for term, synonyms := range domainSynonyms {
		if containsWord(normalized, term) {
			sb.WriteString(" ")
			sb.WriteString(synonyms)
		}
	}

	switch mode {
	case ModeBrainstorm:
		sb.WriteString(" global best practices international models")
	case ModeDeepThink:
		sb.WriteString(" legal framework constitutional judicial administrative")
	}
	return sb.String()
}

func (p *Planner) applyDynamicTopK(plan *Plan) {
	if !p.cfg.Features.DynamicTopK {
		return
	}
	if plan.Signals.ComprehensiveScore > 0.5 {
		plan.TopK = plan.TopK * 3 / 2
	}
	if len(plan.Verticals) > 3 {
		plan.TopK = plan.TopK * 6 / 5
	}
}

// decideInternet is a plan-level decision only; whether a web backend is
// actually configured is the retriever's problem.
func (p *Planner) decideInternet(plan *Plan, override bool) bool {
	if override {
		return true
	}
	// A QA lookup of a specific identifier never needs the web.
	if plan.Mode == ModeQA && len(plan.Filters) > 0 {
		return false
	}
	for _, trigger := range recencyTriggers {
		if strings.Contains(plan.NormalizedQuery, trigger) {
			return true
		}
	}
	return false
}
