package ingestion

import (
	"fmt"
	"strings"
	"testing"
)

// reassemble stitches chunks back together by removing the longest
// suffix/prefix overlap between consecutive chunks.
func reassemble(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	acc := chunks[0]
	for _, chunk := range chunks[1:] {
		overlap := 0
		for k := len(chunk); k > 0; k-- {
			if strings.HasSuffix(acc, chunk[:k]) {
				overlap = k
				break
			}
		}
		acc += chunk[overlap:]
	}
	return acc
}

func sampleText() string {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString(fmt.Sprintf("paragraph %02d with some distinct words\n\n", i))
	}
	sb.WriteString("closing line without trailing newline")
	return sb.String()
}

func TestSplitReconstructsText(t *testing.T) {
	text := sampleText()
	s := NewSplitter(80, 20)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	if got := reassemble(chunks); got != text {
		t.Fatalf("reassembled text differs from original:\n got: %q\nwant: %q", got, text)
	}
}

func TestSplitReconstructsWithoutOverlap(t *testing.T) {
	text := sampleText()
	s := NewSplitter(80, 0)

	chunks := s.Split(text)
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks with zero overlap should concatenate to the original text")
	}
}

func TestSplitRespectsSizeBound(t *testing.T) {
	text := sampleText()
	for _, tc := range []struct{ size, overlap int }{
		{50, 10}, {80, 20}, {200, 50}, {1000, 200},
	} {
		s := NewSplitter(tc.size, tc.overlap)
		for i, chunk := range s.Split(text) {
			if len(chunk) > tc.size {
				t.Fatalf("size=%d overlap=%d: chunk %d has %d bytes", tc.size, tc.overlap, i, len(chunk))
			}
		}
	}
}

func TestSplitPrefersStructuralBoundaries(t *testing.T) {
	heading := "\n=======================================\n"
	text := "Section One body text." + heading + "Section Two body text."
	s := NewSplitter(70, 0)

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected a split at the heading underline, got %d chunks: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[1], heading) {
		t.Fatalf("heading separator should stay with the following chunk, got %q", chunks[1])
	}
}

func TestSplitLongTokenFallsBackToCharacters(t *testing.T) {
	text := strings.Repeat("A", 1500)
	s := NewSplitter(1000, 200)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for a 1500-byte run, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Fatalf("chunk %d exceeds size bound: %d bytes", i, len(chunk))
		}
	}
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total != 1500+s.Overlap {
		t.Fatalf("total chunk bytes = %d, want original 1500 plus %d overlap", total, s.Overlap)
	}
}

func TestSplitEmptyDocumentYieldsNoChunks(t *testing.T) {
	s := NewSplitter(100, 20)
	for _, text := range []string{"", "\n\n", "   \n \t\n"} {
		if chunks := s.Split(text); len(chunks) != 0 {
			t.Fatalf("expected no chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split(strings.Repeat("B", 50))
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if len(chunks[0]) != 50 {
		t.Fatalf("expected the whole document in one chunk, got %d bytes", len(chunks[0]))
	}
}
