package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative chunk size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("New(%d, %d) error = %v, want ErrInvalidParameters",
					tt.chunkSize, tt.overlap, err)
			}
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := New(1000, 200)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Errorf("Split(\"\") = %d chunks, want 0", len(chunks))
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c, err := New(1000, 200)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "A short document that fits in one chunk."
	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("Split = %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, text)
	}
	if chunks[0].Ordinal != 0 || chunks[0].Start != 0 || chunks[0].End != len([]rune(text)) {
		t.Errorf("chunk bounds = (%d, %d, %d), want (0, 0, %d)",
			chunks[0].Ordinal, chunks[0].Start, chunks[0].End, len([]rune(text)))
	}
}

func TestSplitSnapsToSentenceBoundaries(t *testing.T) {
	c, err := New(20, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunks := c.Split("Sentence one. Sentence two. Sentence three.")

	want := []string{
		"Sentence one.",
		"one. Sentence two.",
		"two. Sentence three",
		"three.",
	}
	if len(chunks) != len(want) {
		t.Fatalf("Split = %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d text = %q, want %q", i, chunks[i].Text, w)
		}
		if chunks[i].Ordinal != i {
			t.Errorf("chunk %d ordinal = %d, want %d", i, chunks[i].Ordinal, i)
		}
	}

	// The first window spans 20 characters but snaps back to the period
	// at offset 12, never cutting mid-word.
	if chunks[0].End != 13 {
		t.Errorf("first chunk end = %d, want 13", chunks[0].End)
	}
}

func TestSplitNoBoundaryTakesRawEdge(t *testing.T) {
	c, err := New(10, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 25 characters, no sentence terminators anywhere.
	text := "abcdefghijklmnopqrstuvwxy"
	chunks := c.Split(text)

	if chunks[0].End != 10 {
		t.Errorf("first chunk end = %d, want raw edge 10", chunks[0].End)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start != chunks[i-1].End-2 {
			t.Errorf("chunk %d start = %d, want %d (end-overlap)",
				i, chunks[i].Start, chunks[i-1].End-2)
		}
	}
}

func TestSplitBoundaryBeforeHalfWindowIgnored(t *testing.T) {
	c, err := New(20, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// The only period sits at offset 2, well before half the window, so
	// the chunker must not snap back to it.
	text := "Hi. abcdefghijklmnopqrstuvwxyz"
	chunks := c.Split(text)
	if chunks[0].End != 20 {
		t.Errorf("first chunk end = %d, want 20 (boundary too early to snap)", chunks[0].End)
	}
}

func TestSplitTerminatesAndCoversText(t *testing.T) {
	c, err := New(50, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	runes := len([]rune(text))

	chunks := c.Split(text)
	if len(chunks) == 0 {
		t.Fatal("Split returned no chunks")
	}

	if chunks[0].Start != 0 {
		t.Errorf("first chunk start = %d, want 0", chunks[0].Start)
	}
	if last := chunks[len(chunks)-1]; last.End != runes {
		t.Errorf("last chunk end = %d, want %d", last.End, runes)
	}

	for i, ch := range chunks {
		if ch.Ordinal != i {
			t.Errorf("chunk %d ordinal = %d, want contiguous", i, ch.Ordinal)
		}
		if ch.End <= ch.Start {
			t.Errorf("chunk %d has empty span [%d, %d)", i, ch.Start, ch.End)
		}
		if i > 0 && ch.Start >= chunks[i-1].End {
			t.Errorf("chunk %d start %d leaves a gap after previous end %d",
				i, ch.Start, chunks[i-1].End)
		}
	}
}

func TestSplitHighOverlapSnapAdvances(t *testing.T) {
	// With overlap near chunk size, a boundary snap can pull the window
	// end back inside the overlap region. The next start must still move
	// strictly forward instead of going negative.
	c, err := New(10, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "abcdef.xxxxxxxxxxxxxx"
	runes := len([]rune(text))

	chunks := c.Split(text)
	if len(chunks) == 0 {
		t.Fatal("Split returned no chunks")
	}

	if chunks[0].Text != "abcdef." {
		t.Errorf("first chunk = %q, want snapped %q", chunks[0].Text, "abcdef.")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Errorf("chunk %d start = %d, not after previous start %d",
				i, chunks[i].Start, chunks[i-1].Start)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != runes {
		t.Errorf("last chunk end = %d, want %d", last.End, runes)
	}
}

func TestSplitMultiByteOffsets(t *testing.T) {
	c, err := New(10, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "日本語のテキストです。これは二番目の文です。"
	runes := []rune(text)

	chunks := c.Split(text)
	for i, ch := range chunks {
		got := strings.TrimSpace(string(runes[ch.Start:ch.End]))
		if got != ch.Text {
			t.Errorf("chunk %d offsets [%d, %d) reproduce %q, want %q",
				i, ch.Start, ch.End, got, ch.Text)
		}
	}
}
