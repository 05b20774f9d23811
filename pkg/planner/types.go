package planner

import "time"

// Mode is the response regime for a query.
type Mode string

const (
	ModeQA         Mode = "qa"
	ModeDeepThink  Mode = "deep_think"
	ModeBrainstorm Mode = "brainstorm"
)

// ParseMode validates a caller-supplied mode string. Empty means "classify".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeQA, ModeDeepThink, ModeBrainstorm:
		return Mode(s), true
	case "":
		return "", true
	}
	return "", false
}

// Vertical is a corpus partition by document kind.
type Vertical string

const (
	VerticalLegal    Vertical = "legal"
	VerticalGO       Vertical = "go"
	VerticalJudicial Vertical = "judicial"
	VerticalData     Vertical = "data"
	VerticalSchemes  Vertical = "schemes"

	// VerticalInternet is a pseudo-vertical backed by web search.
	VerticalInternet Vertical = "internet"
)

// CorpusVerticals lists the five store-backed verticals in priority order.
var CorpusVerticals = []Vertical{
	VerticalLegal, VerticalGO, VerticalJudicial, VerticalData, VerticalSchemes,
}

// EmbeddingClass selects the fast or deep embedding model.
type EmbeddingClass string

const (
	EmbeddingFast EmbeddingClass = "fast"
	EmbeddingDeep EmbeddingClass = "deep"
)

// RerankerKind selects the rerank strategy.
type RerankerKind string

const (
	RerankerLight      RerankerKind = "light"
	RerankerPolicy     RerankerKind = "policy"
	RerankerBrainstorm RerankerKind = "brainstorm"
)

// SynthesisStyle selects the answer prompt template.
type SynthesisStyle string

const (
	StyleConcise     SynthesisStyle = "concise"
	StyleDeepPolicy  SynthesisStyle = "deep_policy"
	StyleExploratory SynthesisStyle = "exploratory"
)

// Entity is one extracted structured reference with its source span.
type Entity struct {
	Raw        string
	Normalized string
	Start      int
	End        int
}

// IntentSignals are the min-max normalized mode scores, consumed by the
// router and dynamic top-k.
type IntentSignals struct {
	QAScore            float64
	DeepThinkScore     float64
	BrainstormScore    float64
	ComprehensiveScore float64
	SpecificityScore   float64
}

// Plan is the immutable per-query execution plan.
type Plan struct {
	OriginalQuery   string
	NormalizedQuery string
	EnhancedQuery   string

	Mode           Mode
	ModeConfidence float64
	Signals        IntentSignals

	Verticals       []Vertical
	VerticalWeights map[Vertical]float64

	Entities map[string][]Entity
	// Filters are logical field → values; the retriever maps them to
	// physical payload fields per vertical.
	Filters map[string][]string

	TopK             int
	RerankTop        int
	MaxContextChunks int

	EmbeddingModel EmbeddingClass
	Reranker       RerankerKind
	Style          SynthesisStyle

	IncludeCitations bool
	UseInternet      bool

	PredictedCategories []string

	Timeout time.Duration
}

// HasVertical reports whether v was selected.
func (p *Plan) HasVertical(v Vertical) bool {
	for _, pv := range p.Verticals {
		if pv == v {
			return true
		}
	}
	return false
}
