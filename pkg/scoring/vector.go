package scoring

import "math"

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty, zero-length, or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MMRSelect picks k items by Maximal Marginal Relevance: each step takes the
// candidate maximizing lambda*relevance - (1-lambda)*max-similarity-to-chosen.
// relevance and vectors are parallel to the candidate pool; the returned
// slice holds pool indices in selection order.
func MMRSelect(vectors [][]float32, relevance []float64, k int, lambda float64) []int {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	chosen := make([]int, 0, k)
	used := make([]bool, n)

	// Seed with the most relevant item.
	best := 0
	for i := 1; i < n; i++ {
		if relevance[i] > relevance[best] {
			best = i
		}
	}
	chosen = append(chosen, best)
	used[best] = true

	for len(chosen) < k {
		bestIdx, bestScore := -1, math.Inf(-1)
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, c := range chosen {
				if sim := Cosine(vectors[i], vectors[c]); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*maxSim
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx < 0 {
			break
		}
		chosen = append(chosen, bestIdx)
		used[bestIdx] = true
	}
	return chosen
}
