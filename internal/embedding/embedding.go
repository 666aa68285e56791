// Package embedding wraps a Genkit ai.Embedder behind the single-text
// contract the intake and retrieval pipelines consume. The Gemini embedding
// models emit 3072 dimensions by default; we request truncation to the
// configured dimension (Matryoshka Representation Learning) so the vectors
// match the pgvector column width.
package embedding

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/smarthealth/healthnav/internal/health"
)

// DefaultDimension matches the vector(768) column in db/migrations and the
// output size of the Google embedding models the assistant was built against.
const DefaultDimension = 768

// Provider generates fixed-length embeddings for free text.
//
// Provider is safe for concurrent use by multiple goroutines.
type Provider struct {
	embedder ai.Embedder
	dim      int
}

// New creates a Provider over a Genkit embedder. dim <= 0 selects
// DefaultDimension.
func New(embedder ai.Embedder, dim int) (*Provider, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Provider{embedder: embedder, dim: dim}, nil
}

// Dimension reports the fixed output length of Embed. The vector index
// checks this against its column width at startup and refuses to start on a
// mismatch.
func (p *Provider) Dimension() int {
	return p.dim
}

// Embed maps text to a vector of exactly Dimension() float32 values.
// Identical text yields identical vectors, which retrieval relies on for the
// self-similarity round trip.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(p.dim) // #nosec G115 -- dimension is a small config constant
	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", health.ErrEmbedding, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", health.ErrEmbedding)
	}
	vec := resp.Embeddings[0].Embedding
	if len(vec) != p.dim {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, want %d",
			health.ErrEmbedding, len(vec), p.dim)
	}
	return vec, nil
}
