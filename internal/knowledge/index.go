package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Index stores chunk embeddings and answers nearest-neighbor queries.
// Implementations own schema creation for their backing store.
//
// Following Go practice, the interface is defined here by the consumer side
// of the pipeline; *PostgresIndex is the production implementation and
// tests substitute an in-memory fake.
type Index interface {
	// EnsureSchema creates the chunks schema if absent and verifies the
	// vector dimension of an existing one. Idempotent; a dimension
	// mismatch fails with ErrSchemaConflict.
	EnsureSchema(ctx context.Context) error

	// Upsert writes an entry keyed by its ID with overwrite semantics.
	// No error on either insert or overwrite.
	Upsert(ctx context.Context, entry Entry) error

	// Search returns at most topK entries ordered by descending cosine
	// similarity. Ties break by insertion recency, then ID, so results
	// are deterministic for a given index snapshot. An empty index
	// yields an empty slice, not an error.
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)

	// PruneSource removes a source's entries at or above fromOrdinal.
	// Re-ingestion calls it so a document that shrank does not leave
	// stale tail chunks behind.
	PruneSource(ctx context.Context, sourceKey string, fromOrdinal int) error

	// Refresh makes all prior upserts visible to subsequent searches
	// before returning. The pipeline calls it once after each batch.
	Refresh(ctx context.Context) error
}

// PostgresIndex implements Index on PostgreSQL + pgvector with an HNSW
// cosine index. Safe for concurrent use; all state lives in the database.
type PostgresIndex struct {
	pool      *pgxpool.Pool
	dimension int
	efSearch  int
	logger    *slog.Logger
}

// NewPostgresIndex creates a PostgresIndex.
// efSearch tunes HNSW search-time quality (higher = better recall, slower);
// values below 1 fall back to the pgvector default.
func NewPostgresIndex(pool *pgxpool.Pool, dimension, efSearch int, logger *slog.Logger) *PostgresIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresIndex{
		pool:      pool,
		dimension: dimension,
		efSearch:  efSearch,
		logger:    logger,
	}
}

// EnsureSchema creates the chunks table and its HNSW index if absent, or
// verifies that an existing table's vector dimension matches the configured
// one. The normal path is migrations (db/migrations); EnsureSchema exists so
// a non-default dimension fails at startup instead of on first upsert.
func (idx *PostgresIndex) EnsureSchema(ctx context.Context) error {
	var existing *int
	err := idx.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = to_regclass('public.chunks') AND attname = 'embedding'`,
	).Scan(&existing)

	switch {
	case err == nil:
		// atttypmod carries the declared vector dimension.
		if existing == nil || *existing != idx.dimension {
			got := -1
			if existing != nil {
				got = *existing
			}
			return fmt.Errorf("%w: chunks.embedding is vector(%d), configured dimension is %d",
				ErrSchemaConflict, got, idx.dimension)
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// Table absent: create it. DDL mirrors db/migrations but honors the
		// configured dimension.
	default:
		return fmt.Errorf("%w: checking schema: %w", ErrIndexUnavailable, err)
	}

	ddl := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id            TEXT PRIMARY KEY,
			source_key    TEXT NOT NULL,
			chunk_ordinal INTEGER NOT NULL,
			content       TEXT NOT NULL,
			embedding     vector(%d) NOT NULL,
			start_offset  INTEGER NOT NULL,
			end_offset    INTEGER NOT NULL,
			indexed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, idx.dimension),
		`CREATE INDEX IF NOT EXISTS chunks_embedding_hnsw_idx
			ON chunks USING hnsw (embedding vector_cosine_ops)
			WITH (m = 16, ef_construction = 512)`,
		`CREATE INDEX IF NOT EXISTS chunks_source_key_idx ON chunks (source_key)`,
	}
	for _, stmt := range ddl {
		if _, err := idx.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: creating schema: %w", ErrIndexUnavailable, err)
		}
	}

	idx.logger.Info("created chunks schema", "dimension", idx.dimension)
	return nil
}

// Upsert inserts or overwrites an entry keyed by entry.ID.
func (idx *PostgresIndex) Upsert(ctx context.Context, entry Entry) error {
	if len(entry.Embedding) != idx.dimension {
		return fmt.Errorf("%w: entry %q has %d dimensions, index expects %d",
			ErrDimensionMismatch, entry.ID, len(entry.Embedding), idx.dimension)
	}

	indexedAt := entry.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now().UTC()
	}

	_, err := idx.pool.Exec(ctx,
		`INSERT INTO chunks (id, source_key, chunk_ordinal, content, embedding, start_offset, end_offset, indexed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		     source_key    = EXCLUDED.source_key,
		     chunk_ordinal = EXCLUDED.chunk_ordinal,
		     content       = EXCLUDED.content,
		     embedding     = EXCLUDED.embedding,
		     start_offset  = EXCLUDED.start_offset,
		     end_offset    = EXCLUDED.end_offset,
		     indexed_at    = EXCLUDED.indexed_at`,
		entry.ID, entry.SourceKey, entry.Ordinal, entry.Content,
		pgvector.NewVector(entry.Embedding), entry.Start, entry.End, indexedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upserting entry %q: %w", ErrIndexUnavailable, entry.ID, err)
	}

	idx.logger.Debug("upserted entry", "id", entry.ID, "source", entry.SourceKey, "ordinal", entry.Ordinal)
	return nil
}

// Search performs cosine k-NN over the index.
// pgvector's <=> operator is cosine distance; similarity = 1 - distance.
func (idx *PostgresIndex) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// SET LOCAL scopes the search-quality knob to this transaction.
	if idx.efSearch > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", idx.efSearch)); err != nil {
			return nil, fmt.Errorf("%w: setting ef_search: %w", ErrIndexUnavailable, err)
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT id, source_key, chunk_ordinal, content, embedding, start_offset, end_offset, indexed_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM chunks
		 ORDER BY embedding <=> $1, indexed_at DESC, id
		 LIMIT $2`,
		pgvector.NewVector(vector), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: knn search: %w", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			entry      Entry
			embedding  pgvector.Vector
			similarity float64
		)
		if err := rows.Scan(&entry.ID, &entry.SourceKey, &entry.Ordinal, &entry.Content,
			&embedding, &entry.Start, &entry.End, &entry.IndexedAt, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %w", ErrIndexUnavailable, err)
		}
		entry.Embedding = embedding.Slice()
		hits = append(hits, Hit{Entry: entry, Similarity: float32(similarity)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading hits: %w", ErrIndexUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	return hits, nil
}

// PruneSource deletes a source's entries at or above fromOrdinal.
func (idx *PostgresIndex) PruneSource(ctx context.Context, sourceKey string, fromOrdinal int) error {
	tag, err := idx.pool.Exec(ctx,
		`DELETE FROM chunks WHERE source_key = $1 AND chunk_ordinal >= $2`,
		sourceKey, fromOrdinal,
	)
	if err != nil {
		return fmt.Errorf("%w: pruning source %q: %w", ErrIndexUnavailable, sourceKey, err)
	}
	if tag.RowsAffected() > 0 {
		idx.logger.Debug("pruned stale chunks", "source", sourceKey, "removed", tag.RowsAffected())
	}
	return nil
}

// Refresh is the read-after-write barrier called after a batch of upserts.
// PostgreSQL makes committed writes immediately visible, so the barrier
// reduces to verifying the round-trip; it stays an explicit step so an
// eventually-consistent backend can slot in behind the same interface.
func (idx *PostgresIndex) Refresh(ctx context.Context) error {
	if err := idx.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	return nil
}
