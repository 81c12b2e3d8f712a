package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// FakeEmbedder is a deterministic in-process embedding provider.
// The vector for a given text is derived from its SHA-256 hash and
// L2-normalized, so identical texts embed identically and distinct texts
// almost never collide. No network, no model.
type FakeEmbedder struct {
	Dim int

	// Err, when set, is returned from every Embed call.
	Err error

	// Calls records every embedded text in order.
	Calls []string
}

// NewFakeEmbedder creates a FakeEmbedder with the given dimension.
func NewFakeEmbedder(dim int) *FakeEmbedder {
	return &FakeEmbedder{Dim: dim}
}

// Dimension returns the configured vector width.
func (f *FakeEmbedder) Dimension() int { return f.Dim }

// Embed returns the deterministic vector for text.
func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls = append(f.Calls, text)
	if f.Err != nil {
		return nil, f.Err
	}
	return HashVector(text, f.Dim), nil
}

// HashVector derives a deterministic unit vector of the given dimension
// from text. Components come from repeated SHA-256 hashing, mapped to
// [-1, 1] and normalized.
func HashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))

	var sumSq float64
	buf := seed[:]
	for i := 0; i < dim; i++ {
		if i%8 == 0 && i > 0 {
			next := sha256.Sum256(buf)
			buf = next[:]
		}
		bits := binary.BigEndian.Uint32(buf[(i%8)*4 : (i%8)*4+4])
		v := float64(int32(bits)) / float64(math.MaxInt32)
		vec[i] = float32(v)
		sumSq += v * v
	}

	norm := float32(math.Sqrt(sumSq))
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
