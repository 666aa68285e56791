package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// FakeEmbedder produces deterministic unit vectors derived from the input
// text. Identical texts always embed to identical vectors, so tests can
// assert exact similarity behavior without a real embedding API.
//
// It satisfies the Embedder interfaces consumed by the intake pipeline and
// the retrieval engine.
type FakeEmbedder struct {
	Dim int

	// Err, when set, is returned by every Embed call.
	Err error

	// Calls records every embedded text in order.
	Calls []string
}

// NewFakeEmbedder creates a FakeEmbedder with the given dimension.
func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim}
}

// Embed returns the deterministic vector for text.
func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	f.Calls = append(f.Calls, text)
	return DeterministicVector(text, f.Dim), nil
}

// DeterministicVector derives a unit vector of the given dimension from
// text by stretching its SHA-256 digest. Equal texts yield equal vectors
// with cosine similarity 1.0; unrelated texts land far apart.
func DeterministicVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// Re-hash the digest with the index so each component differs.
		var buf [36]byte
		copy(buf[:32], sum[:])
		binary.LittleEndian.PutUint32(buf[32:], uint32(i))
		h := sha256.Sum256(buf[:])

		// Map the first 8 bytes onto [-1, 1).
		u := binary.LittleEndian.Uint64(h[:8])
		v := float64(u)/float64(math.MaxUint64)*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	// Normalize so cosine similarity equals the dot product.
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
