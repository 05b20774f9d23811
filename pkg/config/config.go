// Package config defines the closed set of configuration knobs for the
// policy retrieval engine and loads them from a single YAML file.
//
// Every section carries SetDefaults and Validate; the loaded Config is
// immutable after process start.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration, the single entry point for all knobs.
type Config struct {
	Name    string        `yaml:"name,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`

	Embedding   EmbeddingConfig   `yaml:"embedding,omitempty"`
	VectorStore VectorStoreConfig `yaml:"vector_store,omitempty"`
	LLM         LLMConfig         `yaml:"llm,omitempty"`

	Retrieval    RetrievalConfig    `yaml:"retrieval,omitempty"`
	Boost        BoostConfig        `yaml:"boost,omitempty"`
	Features     FeatureFlags       `yaml:"feature_flags,omitempty"`
	Timeouts     TimeoutConfig      `yaml:"timeouts,omitempty"`
	Cache        CacheConfig        `yaml:"cache,omitempty"`
	Supersession SupersessionConfig `yaml:"supersession,omitempty"`
	Internet     InternetConfig     `yaml:"internet,omitempty"`

	Observability ObservabilityConfig `yaml:"observability,omitempty"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // simple, text
}

// EmbedderModelConfig configures one embedding backend.
type EmbedderModelConfig struct {
	Provider  string `yaml:"provider,omitempty"` // openai, ollama, fallback
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Host      string `yaml:"host,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty"` // seconds
	BatchSize int    `yaml:"batch_size,omitempty"`
}

// EmbeddingConfig configures the fast/deep embedder pair.
//
// Dimension must match the vector store; every collection shares it.
type EmbeddingConfig struct {
	Dimension int                 `yaml:"dimension,omitempty"`
	Fast      EmbedderModelConfig `yaml:"fast,omitempty"`
	Deep      EmbedderModelConfig `yaml:"deep,omitempty"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Type string `yaml:"type,omitempty"` // qdrant, chromem, pinecone, memory

	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`

	// PersistPath is used by the chromem backend.
	PersistPath string `yaml:"persist_path,omitempty"`

	// IndexName is used by the pinecone backend when a collection name is empty.
	IndexName string `yaml:"index_name,omitempty"`

	// CollectionPrefix prefixes per-vertical collection names
	// (e.g. "policy_" -> "policy_legal").
	CollectionPrefix string `yaml:"collection_prefix,omitempty"`

	// ScoreThreshold drops store results below this score.
	ScoreThreshold float32 `yaml:"score_threshold,omitempty"`
}

// LLMConfig configures the answer-synthesis backend.
type LLMConfig struct {
	Provider  string `yaml:"provider,omitempty"` // openai, ollama
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Host      string `yaml:"host,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty"` // seconds
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// ModeInts holds a per-mode integer knob.
type ModeInts struct {
	QA         int `yaml:"qa,omitempty"`
	DeepThink  int `yaml:"deep_think,omitempty"`
	Brainstorm int `yaml:"brainstorm,omitempty"`
}

// RetrievalConfig holds the retrieval and rerank knobs.
type RetrievalConfig struct {
	QATopK         int `yaml:"qa_top_k,omitempty"`
	DeepTopK       int `yaml:"deep_top_k,omitempty"`
	BrainstormTopK int `yaml:"brainstorm_top_k,omitempty"`

	RerankTop        ModeInts `yaml:"rerank_top,omitempty"`
	MaxContextChunks ModeInts `yaml:"max_context_chunks,omitempty"`

	// HybridAlpha weights dense vs keyword score in hybrid fusion
	// (fused = alpha*dense + (1-alpha)*bm25).
	HybridAlpha float32 `yaml:"hybrid_alpha,omitempty"`

	// MMRLambda trades relevance against diversity for Brainstorm aggregation.
	MMRLambda float32 `yaml:"mmr_lambda,omitempty"`

	// MinPerCategory is the mandatory coverage quota per predicted category.
	MinPerCategory int `yaml:"min_per_category,omitempty"`

	// DiversityWeight is w in (1-w)*score + w*diversity_bonus.
	DiversityWeight float32 `yaml:"diversity_weight,omitempty"`
}

// BoostConfig holds the per-category BM25 boosting factors.
type BoostConfig struct {
	Infrastructure float32 `yaml:"infrastructure,omitempty"`
	WelfareSchemes float32 `yaml:"welfare_schemes,omitempty"`
	Safety         float32 `yaml:"safety,omitempty"`
	Technical      float32 `yaml:"technical,omitempty"`
	Scale          float32 `yaml:"scale,omitempty"`

	// MinScore skips boosting candidates whose original score is below it.
	MinScore float32 `yaml:"min_score,omitempty"`
}

// FeatureFlags is loaded once and never mutated at request time.
type FeatureFlags struct {
	HybridSearch bool `yaml:"hybrid_search,omitempty"`
	// HybridVerticals restricts hybrid fusion to the listed verticals.
	// Empty means all selected verticals.
	HybridVerticals []string `yaml:"hybrid_verticals,omitempty"`

	DynamicTopK bool `yaml:"dynamic_top_k,omitempty"`

	// Classifier/router variant switches. Both variants honor the same
	// contract; one implementation is compiled in, the flags are recorded
	// for trace parity with older deployments.
	UseIntentClassifierV2 bool `yaml:"use_intent_classifier_v2,omitempty"`
	UseQueryRouterV2      bool `yaml:"use_query_router_v2,omitempty"`

	// LLMRerank enables the LLM judge inside the policy reranker.
	LLMRerank bool `yaml:"llm_rerank,omitempty"`
}

// TimeoutConfig holds per-mode overall deadlines in seconds.
type TimeoutConfig struct {
	QA         int `yaml:"qa,omitempty"`
	DeepThink  int `yaml:"deep_think,omitempty"`
	Brainstorm int `yaml:"brainstorm,omitempty"`
}

// CacheConfig configures the process-wide caches.
type CacheConfig struct {
	// LLMDir is the directory for the content-addressed LLM response cache.
	// Empty disables the file cache.
	LLMDir string `yaml:"llm_dir,omitempty"`

	// LLMTTL bounds the age of cached LLM responses, in hours (0 = no TTL).
	LLMTTL int `yaml:"llm_ttl_hours,omitempty"`

	// EmbeddingBudget is the embedding LRU entry budget.
	EmbeddingBudget int `yaml:"embedding_budget,omitempty"`
}

// SupersessionConfig controls how superseded documents are handled.
type SupersessionConfig struct {
	// Policy is "drop" or "downrank". DeepThink always keeps results with a
	// marker regardless of policy.
	Policy string `yaml:"policy,omitempty"`

	// DownrankFactor multiplies the score of superseded chunks when the
	// policy is "downrank".
	DownrankFactor float32 `yaml:"downrank_factor,omitempty"`
}

// InternetConfig configures the optional internet pseudo-vertical.
type InternetConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // SearxNG-compatible JSON search endpoint
	Timeout  int    `yaml:"timeout,omitempty"`  // seconds
	MaxHits  int    `yaml:"max_hits,omitempty"`
}

// ObservabilityConfig toggles metrics and tracing.
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled,omitempty"`
	TracingEnabled bool `yaml:"tracing_enabled,omitempty"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "policy-engine"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}

	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 768
	}
	if c.Embedding.Fast.Provider == "" {
		c.Embedding.Fast.Provider = "fallback"
	}
	if c.Embedding.Deep.Provider == "" {
		c.Embedding.Deep = c.Embedding.Fast
	}

	if c.VectorStore.Type == "" {
		c.VectorStore.Type = "chromem"
	}
	if c.VectorStore.Port == 0 {
		c.VectorStore.Port = 6334
	}
	if c.VectorStore.CollectionPrefix == "" {
		c.VectorStore.CollectionPrefix = "policy_"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}

	if c.Retrieval.QATopK == 0 {
		c.Retrieval.QATopK = 10
	}
	if c.Retrieval.DeepTopK == 0 {
		c.Retrieval.DeepTopK = 25
	}
	if c.Retrieval.BrainstormTopK == 0 {
		c.Retrieval.BrainstormTopK = 20
	}
	if c.Retrieval.RerankTop.QA == 0 {
		c.Retrieval.RerankTop.QA = 8
	}
	if c.Retrieval.RerankTop.DeepThink == 0 {
		c.Retrieval.RerankTop.DeepThink = 20
	}
	if c.Retrieval.RerankTop.Brainstorm == 0 {
		c.Retrieval.RerankTop.Brainstorm = 15
	}
	if c.Retrieval.MaxContextChunks.QA == 0 {
		c.Retrieval.MaxContextChunks.QA = 6
	}
	if c.Retrieval.MaxContextChunks.DeepThink == 0 {
		c.Retrieval.MaxContextChunks.DeepThink = 12
	}
	if c.Retrieval.MaxContextChunks.Brainstorm == 0 {
		c.Retrieval.MaxContextChunks.Brainstorm = 10
	}
	if c.Retrieval.HybridAlpha == 0 {
		c.Retrieval.HybridAlpha = 0.7
	}
	if c.Retrieval.MMRLambda == 0 {
		c.Retrieval.MMRLambda = 0.5
	}
	if c.Retrieval.MinPerCategory == 0 {
		c.Retrieval.MinPerCategory = 1
	}
	if c.Retrieval.DiversityWeight == 0 {
		c.Retrieval.DiversityWeight = 0.4
	}

	if c.Boost.Infrastructure == 0 {
		c.Boost.Infrastructure = 1.5
	}
	if c.Boost.WelfareSchemes == 0 {
		c.Boost.WelfareSchemes = 1.4
	}
	if c.Boost.Safety == 0 {
		c.Boost.Safety = 1.3
	}
	if c.Boost.Technical == 0 {
		c.Boost.Technical = 1.2
	}
	if c.Boost.Scale == 0 {
		c.Boost.Scale = 0.1
	}
	if c.Boost.MinScore == 0 {
		c.Boost.MinScore = 0.5
	}

	if c.Timeouts.QA == 0 {
		c.Timeouts.QA = 2
	}
	if c.Timeouts.DeepThink == 0 {
		c.Timeouts.DeepThink = 10
	}
	if c.Timeouts.Brainstorm == 0 {
		c.Timeouts.Brainstorm = 8
	}

	if c.Cache.EmbeddingBudget == 0 {
		c.Cache.EmbeddingBudget = 4096
	}

	if c.Supersession.Policy == "" {
		c.Supersession.Policy = "drop"
	}
	if c.Supersession.DownrankFactor == 0 {
		c.Supersession.DownrankFactor = 0.3
	}

	if c.Internet.Timeout == 0 {
		c.Internet.Timeout = 5
	}
	if c.Internet.MaxHits == 0 {
		c.Internet.MaxHits = 5
	}
}

// Validate checks cross-field invariants after defaults are applied.
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}
	switch c.VectorStore.Type {
	case "qdrant", "chromem", "pinecone", "memory":
	default:
		return fmt.Errorf("unknown vector_store.type: %q", c.VectorStore.Type)
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Host == "" {
		return fmt.Errorf("vector_store.host is required for qdrant")
	}
	if c.VectorStore.Type == "pinecone" && c.VectorStore.APIKey == "" {
		return fmt.Errorf("vector_store.api_key is required for pinecone")
	}
	if c.Retrieval.HybridAlpha < 0 || c.Retrieval.HybridAlpha > 1 {
		return fmt.Errorf("retrieval.hybrid_alpha must be in [0,1]")
	}
	if c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be in [0,1]")
	}
	switch c.Supersession.Policy {
	case "drop", "downrank":
	default:
		return fmt.Errorf("supersession.policy must be drop or downrank, got %q", c.Supersession.Policy)
	}
	if c.Internet.Enabled && c.Internet.Endpoint == "" {
		return fmt.Errorf("internet.endpoint is required when internet.enabled")
	}
	return nil
}

// ModeTimeout returns the overall deadline for a mode string
// (qa, deep_think, brainstorm).
func (c *Config) ModeTimeout(mode string) time.Duration {
	switch mode {
	case "deep_think":
		return time.Duration(c.Timeouts.DeepThink) * time.Second
	case "brainstorm":
		return time.Duration(c.Timeouts.Brainstorm) * time.Second
	default:
		return time.Duration(c.Timeouts.QA) * time.Second
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}
