package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// MaxEmbedChars is the maximum text length accepted by the embedding model.
// Callers truncate before embedding. Truncation is lossy and must be a
// visible caller decision, never hidden inside the provider.
const MaxEmbedChars = 8000

// Embedder turns text into a fixed-dimension dense vector.
// Dimension is constant for the lifetime of the instance and must match the
// index schema.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Truncate clips text to MaxEmbedChars characters.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxEmbedChars {
		return text
	}
	return string(runes[:MaxEmbedChars])
}

// GenkitEmbedder adapts a Genkit ai.Embedder to the Embedder capability.
// The configured dimension is enforced on every response: a backend that
// suddenly returns a different width is a deployment mistake and surfaces
// as ErrDimensionMismatch rather than corrupting the index.
type GenkitEmbedder struct {
	embedder  ai.Embedder
	dimension int
}

// NewGenkitEmbedder wraps a Genkit embedder with a fixed output dimension.
func NewGenkitEmbedder(embedder ai.Embedder, dimension int) *GenkitEmbedder {
	return &GenkitEmbedder{embedder: embedder, dimension: dimension}
}

// Dimension returns the provider's fixed vector width.
func (e *GenkitEmbedder) Dimension() int { return e.dimension }

// Embed generates an embedding for text. The caller is responsible for
// truncating text to MaxEmbedChars first.
func (e *GenkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrEmbedding)
	}

	vector := resp.Embeddings[0].Embedding
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), e.dimension)
	}

	return vector, nil
}
