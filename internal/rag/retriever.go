// Package rag provides the read path of retrieval-augmented generation:
// embedding a query and mapping nearest-neighbor hits into citation-bearing
// context for the generation orchestrator.
package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/navigatorhq/navigator/internal/knowledge"
)

// searchTimeout bounds one retrieval round trip (query embedding plus
// vector search). On expiry the turn proceeds without context.
const searchTimeout = 10 * time.Second

// Citation is one retrieved chunk with its provenance.
type Citation struct {
	Text       string  `json:"-"`
	Source     string  `json:"source"`
	Ordinal    int     `json:"chunk_id"`
	Similarity float32 `json:"score"`
}

// Context is retrieved context ordered by descending similarity.
// Empty context means the turn runs without retrieval grounding.
type Context []Citation

// Retriever embeds a query and asks the index for the most similar chunks.
// It only reads the index; ingestion owns all writes.
type Retriever struct {
	embedder knowledge.Embedder
	index    knowledge.Index
	topK     int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. topK values below 1 fall back to 5.
func NewRetriever(embedder knowledge.Embedder, index knowledge.Index, topK int, logger *slog.Logger) *Retriever {
	if topK < 1 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, index: index, topK: topK, logger: logger}
}

// Retrieve returns the top-k most similar chunks for query.
//
// Retrieval is an enhancement, not a hard dependency: any embedding or
// index failure (including timeout) degrades to an empty Context so the
// chat turn can still be answered. The failure is logged, never propagated.
func (r *Retriever) Retrieve(ctx context.Context, query string) Context {
	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vector, err := r.embedder.Embed(searchCtx, knowledge.Truncate(query))
	if err != nil {
		r.logger.Warn("query embedding failed, continuing without context", "error", err)
		return nil
	}

	hits, err := r.index.Search(searchCtx, vector, r.topK)
	if err != nil {
		r.logger.Warn("vector search failed, continuing without context", "error", err)
		return nil
	}

	result := make(Context, 0, len(hits))
	for _, hit := range hits {
		result = append(result, Citation{
			Text:       hit.Entry.Content,
			Source:     hit.Entry.SourceKey,
			Ordinal:    hit.Entry.Ordinal,
			Similarity: hit.Similarity,
		})
	}

	r.logger.Debug("retrieved context", "query_length", len(query), "hits", len(result))
	return result
}
