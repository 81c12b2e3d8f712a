package knowledge

import "time"

// Entry is the durable unit stored in the vector index: one chunk of one
// document together with its embedding and span.
type Entry struct {
	ID        string    // deterministic, derived from (SourceKey, Ordinal)
	SourceKey string    // stable document key (e.g. bucket/object path)
	Ordinal   int       // 0-based chunk position within the document
	Content   string    // chunk text
	Embedding []float32 // fixed-dimension dense vector
	Start     int       // character span [Start, End) over the document
	End       int
	IndexedAt time.Time // zero value = let the database assign now()
}

// Hit is a single nearest-neighbor search result.
type Hit struct {
	Entry
	Similarity float32 // cosine similarity, higher is more similar
}
