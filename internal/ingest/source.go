package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrExtraction indicates the blob could not be read or no text could be
// extracted from it. Not retried: the upstream source must be fixed.
var ErrExtraction = errors.New("text extraction failed")

// Trigger identifies a newly available document in blob storage.
type Trigger struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// BlobStore reads raw document bytes. External collaborator: the production
// deployment backs it with object storage, local runs with a directory tree.
type BlobStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// TextExtractor turns raw document bytes into plain text. External
// collaborator: PDF and office formats are handled upstream, this core only
// needs the resulting text.
type TextExtractor interface {
	Extract(ctx context.Context, key string, data []byte) (string, error)
}

// Report is the ingestion-trigger response.
type Report struct {
	Status         string    `json:"status"`
	Bucket         string    `json:"bucket"`
	Key            string    `json:"key"`
	TextLength     int       `json:"text_length"`
	ChunksCreated  int       `json:"chunks_created"`
	ChunksIndexed  int       `json:"chunks_indexed"`
	FailedOrdinals []int     `json:"failed_ordinals,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Ingestor resolves an ingestion trigger into raw text and runs the
// pipeline on it. The document key in the index is "bucket/key".
type Ingestor struct {
	blobs     BlobStore
	extractor TextExtractor
	pipeline  *Pipeline
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(blobs BlobStore, extractor TextExtractor, pipeline *Pipeline, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{blobs: blobs, extractor: extractor, pipeline: pipeline, logger: logger}
}

// Process fetches, extracts and ingests the document named by trigger.
func (i *Ingestor) Process(ctx context.Context, trigger Trigger) (Report, error) {
	report := Report{
		Bucket:    trigger.Bucket,
		Key:       trigger.Key,
		Timestamp: time.Now().UTC(),
	}

	data, err := i.blobs.Fetch(ctx, trigger.Bucket, trigger.Key)
	if err != nil {
		return report, fmt.Errorf("%w: fetching %s/%s: %w", ErrExtraction, trigger.Bucket, trigger.Key, err)
	}

	text, err := i.extractor.Extract(ctx, trigger.Key, data)
	if err != nil {
		return report, fmt.Errorf("%w: extracting %s/%s: %w", ErrExtraction, trigger.Bucket, trigger.Key, err)
	}
	report.TextLength = len([]rune(text))

	sourceKey := trigger.Bucket + "/" + trigger.Key
	result, err := i.pipeline.Ingest(ctx, sourceKey, text)
	report.ChunksCreated = result.ChunksCreated
	report.ChunksIndexed = result.ChunksIndexed
	report.FailedOrdinals = result.FailedOrdinals
	if err != nil {
		return report, err
	}

	if len(result.FailedOrdinals) > 0 {
		report.Status = "partial"
	} else {
		report.Status = "indexed"
	}
	return report, nil
}

// LocalBlobStore serves blobs from a directory tree: bucket maps to a
// subdirectory of root, key to a file path within it. Reads go through
// os.Root so a hostile key cannot traverse outside the bucket.
type LocalBlobStore struct {
	root string
}

// NewLocalBlobStore creates a LocalBlobStore rooted at dir.
func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving documents root: %w", err)
	}
	return &LocalBlobStore{root: abs}, nil
}

// Fetch reads the file at root/bucket/key.
func (s *LocalBlobStore) Fetch(_ context.Context, bucket, key string) ([]byte, error) {
	bucketDir := filepath.Join(s.root, filepath.Clean("/"+bucket))

	root, err := os.OpenRoot(bucketDir)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", bucket, err)
	}
	defer func() {
		_ = root.Close()
	}()

	data, err := root.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", key, err)
	}
	return data, nil
}

// PlainTextExtractor treats the blob as UTF-8 text. Invalid byte sequences
// are dropped rather than failing the whole document.
type PlainTextExtractor struct{}

// Extract returns the blob as trimmed, valid UTF-8 text.
func (PlainTextExtractor) Extract(_ context.Context, _ string, data []byte) (string, error) {
	text := strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	if text == "" {
		return "", errors.New("no text content")
	}
	return text, nil
}
