// Package ingest orchestrates the document write path: chunk, embed, index.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/navigatorhq/navigator/internal/chunker"
	"github.com/navigatorhq/navigator/internal/knowledge"
)

// ErrTextTooShort indicates extracted text below the minimum length.
// Short extractions usually mean a failed upstream extraction; indexing
// them would silently fill the index with garbage.
var ErrTextTooShort = errors.New("extracted text too short")

// ErrNothingIndexed indicates that every chunk of a document failed to
// embed or upsert. Partial failures are reported in Result.FailedOrdinals
// instead.
var ErrNothingIndexed = errors.New("no chunks indexed")

// Result reports the outcome of one document ingestion.
// FailedOrdinals enumerates chunks that could not be embedded or indexed;
// a non-empty slice means the document is partially indexed and the caller
// should surface that, never treat it as full success.
type Result struct {
	ChunksCreated  int
	ChunksIndexed  int
	FailedOrdinals []int
}

// Config contains all required parameters for the Pipeline.
type Config struct {
	Chunker       *chunker.Chunker
	Embedder      knowledge.Embedder
	Index         knowledge.Index
	MinTextLength int
	Logger        *slog.Logger
}

func (cfg Config) validate() error {
	if cfg.Chunker == nil {
		return errors.New("chunker is required")
	}
	if cfg.Embedder == nil {
		return errors.New("embedder is required")
	}
	if cfg.Index == nil {
		return errors.New("index is required")
	}
	return nil
}

// Pipeline ingests one document at a time: validate, chunk, embed, upsert,
// refresh. It owns the write path to the index exclusively; retrieval only
// reads. Stateless and safe for concurrent use.
type Pipeline struct {
	chunker       *chunker.Chunker
	embedder      knowledge.Embedder
	index         knowledge.Index
	minTextLength int
	logger        *slog.Logger
}

// NewPipeline creates a Pipeline from cfg.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ingest pipeline config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:       cfg.Chunker,
		embedder:      cfg.Embedder,
		index:         cfg.Index,
		minTextLength: cfg.MinTextLength,
		logger:        logger,
	}, nil
}

// Ingest chunks and indexes one document under sourceKey.
//
// Partial failure policy is lenient: a chunk whose embedding or upsert
// fails is recorded in Result.FailedOrdinals and the rest of the batch
// continues, so a transient hiccup cannot silently under-index a document:
// the failed ordinals are always enumerated for the caller. Two exceptions
// abort immediately: a dimension mismatch (deployment mistake, retrying is
// pointless) and a document where nothing at all could be indexed.
//
// Re-ingesting the same key overwrites: entry IDs are deterministic and
// stale tail chunks beyond the new chunk count are pruned.
func (p *Pipeline) Ingest(ctx context.Context, sourceKey, text string) (Result, error) {
	var res Result

	if length := len([]rune(text)); length < p.minTextLength {
		return res, fmt.Errorf("%w: got %d characters, need at least %d",
			ErrTextTooShort, length, p.minTextLength)
	}

	chunks := p.chunker.Split(text)
	res.ChunksCreated = len(chunks)

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("ingestion canceled: %w", err)
		}

		vector, err := p.embedder.Embed(ctx, knowledge.Truncate(c.Text))
		if err != nil {
			if errors.Is(err, knowledge.ErrDimensionMismatch) {
				return res, err
			}
			p.logger.Warn("embedding chunk failed", "source", sourceKey, "ordinal", c.Ordinal, "error", err)
			res.FailedOrdinals = append(res.FailedOrdinals, c.Ordinal)
			continue
		}

		entry := knowledge.Entry{
			ID:        EntryID(sourceKey, c.Ordinal),
			SourceKey: sourceKey,
			Ordinal:   c.Ordinal,
			Content:   c.Text,
			Embedding: vector,
			Start:     c.Start,
			End:       c.End,
		}
		if err := p.index.Upsert(ctx, entry); err != nil {
			if errors.Is(err, knowledge.ErrDimensionMismatch) {
				return res, err
			}
			p.logger.Warn("indexing chunk failed", "source", sourceKey, "ordinal", c.Ordinal, "error", err)
			res.FailedOrdinals = append(res.FailedOrdinals, c.Ordinal)
			continue
		}

		res.ChunksIndexed++
	}

	if res.ChunksIndexed == 0 && res.ChunksCreated > 0 {
		return res, fmt.Errorf("%w: all %d chunks of %q failed", ErrNothingIndexed, res.ChunksCreated, sourceKey)
	}

	if err := p.index.PruneSource(ctx, sourceKey, len(chunks)); err != nil {
		p.logger.Warn("pruning stale chunks failed", "source", sourceKey, "error", err)
	}

	// Read-after-write barrier: subsequent searches must see this batch.
	if err := p.index.Refresh(ctx); err != nil {
		return res, fmt.Errorf("refreshing index: %w", err)
	}

	p.logger.Info("document ingested",
		"source", sourceKey,
		"chunks_created", res.ChunksCreated,
		"chunks_indexed", res.ChunksIndexed,
		"chunks_failed", len(res.FailedOrdinals),
	)

	return res, nil
}

// EntryID derives the deterministic index key for a chunk from its document
// key and ordinal, so re-ingestion overwrites instead of duplicating.
func EntryID(sourceKey string, ordinal int) string {
	hash := sha256.Sum256([]byte(sourceKey + "\x00" + strconv.Itoa(ordinal)))
	return hex.EncodeToString(hash[:16])
}
