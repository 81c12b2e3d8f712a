package knowledge

import "errors"

// Sentinel errors for the embedding and index capabilities.
// Checked with errors.Is at call sites; callers decide whether to retry,
// degrade, or abort.
var (
	// ErrEmbeddingUnavailable indicates the embedding backend could not be
	// reached. Transient: retrieval degrades to empty context, ingestion
	// reports the affected chunks.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrEmbedding indicates the embedding backend returned a malformed or
	// empty response.
	ErrEmbedding = errors.New("malformed embedding response")

	// ErrIndexUnavailable indicates the vector index could not be reached.
	// Transient: callers decide whether to retry or degrade.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector whose dimension differs from
	// the index schema. Configuration error: fatal, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSchemaConflict indicates an existing index schema whose dimension
	// differs from the configured one. Configuration error: fatal.
	ErrSchemaConflict = errors.New("index schema conflict")
)
