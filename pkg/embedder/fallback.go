package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// FallbackEmbedder produces deterministic pseudo-random unit vectors from a
// content hash. It keeps the pipeline alive when no provider is configured;
// retrieval quality degrades but nothing crashes.
type FallbackEmbedder struct {
	dimension int
}

// NewFallbackEmbedder creates a fallback embedder with the given dimension.
func NewFallbackEmbedder(dimension int) *FallbackEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &FallbackEmbedder{dimension: dimension}
}

// Embed hashes the text into an L2-normalized vector. The same text always
// produces the same vector.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)

	// Expand the seed hash with a counter until the vector is filled.
	seed := sha256.Sum256([]byte(text))
	var norm float64
	for i := 0; i < e.dimension; {
		block := sha256.Sum256(append(seed[:], byte(i), byte(i>>8)))
		for off := 0; off+4 <= len(block) && i < e.dimension; off += 4 {
			bits := binary.LittleEndian.Uint32(block[off : off+4])
			// Map to [-1, 1).
			v := float64(int32(bits)) / float64(math.MaxInt32)
			vec[i] = float32(v)
			norm += v * v
			i++
		}
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (e *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimension returns the vector width.
func (e *FallbackEmbedder) Dimension() int {
	return e.dimension
}

// Model returns the pseudo-model name.
func (e *FallbackEmbedder) Model() string {
	return "hash-fallback"
}

// Close is a no-op.
func (e *FallbackEmbedder) Close() error {
	return nil
}

// Ensure FallbackEmbedder implements Embedder.
var _ Embedder = (*FallbackEmbedder)(nil)
