package ingestion

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "reference/api/foo.bar.rst.txt", strings.Repeat("A", 1500))
	writeDoc(t, root, "user_guide/intro.rst.txt", strings.Repeat("B", 50))

	svc := NewService(NewSplitter(1000, 200), log.New(io.Discard, "", 0))
	chunks, err := svc.IngestDirectory(root)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}

	var apiChunks, guideChunks []Chunk
	for _, c := range chunks {
		switch c.Meta.DocType {
		case DocTypeAPIReference:
			apiChunks = append(apiChunks, c)
		case DocTypeTutorialGuide:
			guideChunks = append(guideChunks, c)
		default:
			t.Errorf("unexpected doc type %q for %s", c.Meta.DocType, c.Meta.Source)
		}
	}

	if len(apiChunks) < 2 {
		t.Fatalf("expected long API document to split, got %d chunks", len(apiChunks))
	}
	for _, c := range apiChunks {
		if c.Meta.APIName != "foo.bar" {
			t.Errorf("api_name = %q, want foo.bar", c.Meta.APIName)
		}
	}

	if len(guideChunks) != 1 {
		t.Fatalf("expected 1 guide chunk, got %d", len(guideChunks))
	}
	if guideChunks[0].Text != strings.Repeat("B", 50) {
		t.Errorf("guide chunk text mangled: %q", guideChunks[0].Text)
	}
	if guideChunks[0].Meta.APIName != "" {
		t.Errorf("guide chunk has api_name %q", guideChunks[0].Meta.APIName)
	}
}

func TestProcessChunkIDsUniqueAcrossDocuments(t *testing.T) {
	docs := []Document{
		{Path: "reference/api/foo.bar.rst.txt", Content: strings.Repeat("A", 1500)},
		{Path: "user_guide/intro.rst.txt", Content: strings.Repeat("B", 50)},
	}

	svc := NewService(NewSplitter(1000, 200), log.New(io.Discard, "", 0))
	chunks := svc.Process(docs)

	seen := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		if c.Meta.ChunkID == "" {
			t.Fatalf("chunk %d has no ID", i)
		}
		if seen[c.Meta.ChunkID] {
			t.Fatalf("duplicate chunk ID %q", c.Meta.ChunkID)
		}
		seen[c.Meta.ChunkID] = true
	}

	// The counter spans documents, so the guide chunk continues where the
	// API document left off.
	last := chunks[len(chunks)-1]
	want := "intro.rst.txt_" + strconv.Itoa(len(chunks)-1)
	if last.Meta.ChunkID != want {
		t.Errorf("last chunk ID = %q, want %q", last.Meta.ChunkID, want)
	}
}

func TestProcessSkipsEmptyDocuments(t *testing.T) {
	docs := []Document{
		{Path: "reference/api/empty.rst.txt", Content: "   \n\n  "},
		{Path: "user_guide/intro.rst.txt", Content: "hello world"},
	}

	svc := NewService(NewSplitter(1000, 200), log.New(io.Discard, "", 0))
	chunks := svc.Process(docs)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Meta.Source != "intro.rst.txt" {
		t.Errorf("chunk source = %q", chunks[0].Meta.Source)
	}
	if chunks[0].Meta.ChunkID != "intro.rst.txt_0" {
		t.Errorf("chunk ID = %q, want intro.rst.txt_0", chunks[0].Meta.ChunkID)
	}
}

func TestEstimateTokens(t *testing.T) {
	chunks := []Chunk{
		{Text: strings.Repeat("x", 400)},
		{Text: strings.Repeat("y", 100)},
	}
	if got := EstimateTokens(chunks); got != 125 {
		t.Errorf("EstimateTokens = %d, want 125", got)
	}
}
