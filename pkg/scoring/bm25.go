package scoring

import "math"

// BM25 parameters; standard Robertson values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// BM25 scores a query against a small in-memory document set. It is built
// per candidate pool, not over the whole corpus; document frequencies come
// from the pool itself.
type BM25 struct {
	docTokens [][]string
	docFreq   map[string]int
	avgLen    float64
}

// NewBM25 indexes the given documents.
func NewBM25(docs []string) *BM25 {
	b := &BM25{
		docTokens: make([][]string, len(docs)),
		docFreq:   make(map[string]int),
	}
	totalLen := 0
	for i, doc := range docs {
		tokens := Tokenize(doc)
		b.docTokens[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				b.docFreq[t]++
			}
		}
	}
	if len(docs) > 0 {
		b.avgLen = float64(totalLen) / float64(len(docs))
	}
	return b
}

// Score computes the BM25 score of queryTokens against document i.
func (b *BM25) Score(queryTokens []string, i int) float64 {
	if i < 0 || i >= len(b.docTokens) || b.avgLen == 0 {
		return 0
	}
	tokens := b.docTokens[i]
	docLen := float64(len(tokens))
	n := float64(len(b.docTokens))

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	score := 0.0
	for _, q := range queryTokens {
		freq := float64(tf[q])
		if freq == 0 {
			continue
		}
		df := float64(b.docFreq[q])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		score += idf * (freq * (bm25K1 + 1)) /
			(freq + bm25K1*(1-bm25B+bm25B*docLen/b.avgLen))
	}
	return score
}

// ScoreAll scores the query against every indexed document.
func (b *BM25) ScoreAll(query string) []float64 {
	queryTokens := Tokenize(query)
	scores := make([]float64, len(b.docTokens))
	for i := range b.docTokens {
		scores[i] = b.Score(queryTokens, i)
	}
	return scores
}

// MinMaxNormalize rescales scores into [0,1]. A constant slice maps to all
// zeros.
func MinMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	out := make([]float64, len(scores))
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}
