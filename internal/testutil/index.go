package testutil

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/navigatorhq/navigator/internal/knowledge"
)

// MemoryIndex is an in-memory vector index for tests. It mirrors the
// production index semantics: upsert by ID, cosine-ordered search with
// deterministic tie-breaks, tail pruning per source.
//
// Failure injection: UpsertErr fails every upsert, UpsertErrFor fails
// upserts of specific ordinals, SearchErr fails every search.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[string]knowledge.Entry

	UpsertErr    error
	UpsertErrFor map[int]error
	SearchErr    error

	Refreshed int
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]knowledge.Entry)}
}

// EnsureSchema is a no-op for the in-memory index.
func (m *MemoryIndex) EnsureSchema(context.Context) error { return nil }

// Upsert stores entry, overwriting any previous entry with the same ID.
func (m *MemoryIndex) Upsert(_ context.Context, entry knowledge.Entry) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if err, ok := m.UpsertErrFor[entry.Ordinal]; ok {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now()
	}
	m.entries[entry.ID] = entry
	return nil
}

// Search returns up to topK entries by descending cosine similarity,
// tie-broken by IndexedAt descending then ID.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]knowledge.Hit, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]knowledge.Hit, 0, len(m.entries))
	for _, e := range m.entries {
		hits = append(hits, knowledge.Hit{
			Entry:      e,
			Similarity: cosine(vector, e.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if !hits[i].IndexedAt.Equal(hits[j].IndexedAt) {
			return hits[i].IndexedAt.After(hits[j].IndexedAt)
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// PruneSource removes entries of sourceKey at or beyond fromOrdinal.
func (m *MemoryIndex) PruneSource(_ context.Context, sourceKey string, fromOrdinal int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.SourceKey == sourceKey && e.Ordinal >= fromOrdinal {
			delete(m.entries, id)
		}
	}
	return nil
}

// Refresh counts invocations so tests can assert the batch barrier ran.
func (m *MemoryIndex) Refresh(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshed++
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Get returns the entry with the given ID.
func (m *MemoryIndex) Get(id string) (knowledge.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
