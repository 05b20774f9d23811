package retrieval

import (
	"fmt"
	"strconv"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
)

// Candidate is one retrieval result flowing through the pipeline. Scores are
// annotated in place as later stages run; the struct is owned by a single
// query and never shared.
type Candidate struct {
	ChunkID  string
	DocID    string
	Vertical planner.Vertical
	Content  string
	Score    float64
	Vector   []float32
	Metadata map[string]any

	// Annotations added by later stages.
	RerankScore       float64
	BM25Boost         float64
	MatchedCategories []string
	RewriteSource     string

	Superseded   bool
	SupersededBy string
}

// MetaString reads a string-ish metadata value.
func (c *Candidate) MetaString(key string) string {
	v, ok := c.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprintf("%v", v)
}

// MetaStringList reads a list-valued metadata value, accepting a scalar as a
// one-element list.
func (c *Candidate) MetaStringList(key string) []string {
	v, ok := c.Metadata[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		if s := c.MetaString(key); s != "" {
			return []string{s}
		}
	}
	return nil
}

// MetaBool reads a bool metadata value.
func (c *Candidate) MetaBool(key string) bool {
	v, ok := c.Metadata[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// EffectiveScore is the score later stages should rank by: the rerank score
// when set, the retrieval score otherwise.
func (c *Candidate) EffectiveScore() float64 {
	if c.RerankScore != 0 {
		return c.RerankScore
	}
	return c.Score
}
