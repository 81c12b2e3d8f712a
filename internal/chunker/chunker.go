// Package chunker splits extracted document text into overlapping,
// boundary-aware chunks used as the unit of retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParameters indicates chunk sizing that cannot terminate or
// produce meaningful chunks. Callers should treat it as a caller error,
// not retried.
var ErrInvalidParameters = errors.New("invalid chunking parameters")

// Chunk is a bounded, boundary-snapped substring of a document.
// Start/End are character offsets into the source text, [Start, End).
// Text is the trimmed window content; Ordinal is 0-based and contiguous
// within a document.
type Chunk struct {
	Ordinal int
	Text    string
	Start   int
	End     int
}

// Chunker produces overlapping chunks with sentence-boundary snapping.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a Chunker. Requires chunkSize > overlap >= 0; anything else
// fails with ErrInvalidParameters (overlap >= chunkSize would prevent the
// window from advancing).
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidParameters, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidParameters, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than chunk size (%d)",
			ErrInvalidParameters, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split walks text in windows of chunkSize characters. For any window whose
// right edge falls before the end of the text, it searches backward from the
// edge for the last sentence terminator or line break; if that boundary sits
// beyond half the window, the window end snaps to just after it, avoiding
// mid-sentence cuts. The next window starts at end-overlap, clamped so every
// window starts strictly after the previous one even when a snap pulls the
// end back inside the overlap. Forward progress per step is therefore at
// least one character and at most chunkSize-overlap.
//
// This is a greedy boundary-snapping segmentation, not an optimal
// minimum-cut one: a long boundary-free run simply takes the raw edge.
//
// Empty input produces zero chunks. Offsets are rune positions, so
// multi-byte text chunks cleanly.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	ordinal := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		} else if end < len(runes) {
			window := runes[start:end]
			if boundary := lastBoundary(window); boundary > c.chunkSize/2 {
				end = start + boundary + 1
			}
		}

		chunks = append(chunks, Chunk{
			Ordinal: ordinal,
			Text:    strings.TrimSpace(string(runes[start:end])),
			Start:   start,
			End:     end,
		})

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
		ordinal++
	}

	return chunks
}

// lastBoundary returns the index of the last sentence terminator or line
// break in the window, or -1 if there is none.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return -1
}
