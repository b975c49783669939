package ingestion

import (
	"io"
	"log"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want DocumentFormat
	}{
		{"reference/api/foo.rst.txt", FormatText},
		{"guide.RST", FormatText},
		{"notes.md", FormatText},
		{"README.markdown", FormatText},
		{"manual.pdf", FormatPDF},
		{"diagram.png", FormatUnknown},
		{"archive.tar.gz", FormatUnknown},
	}
	for _, c := range cases {
		if got := DetectFormat(c.path); got != c.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestLoadDocuments(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "reference/api/foo.rst.txt", "line one\r\nline two\r")
	writeDoc(t, root, "images/diagram.png", "\x89PNG")

	docs, err := LoadDocuments(root, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Content != "line one\nline two\n" {
		t.Errorf("newlines not normalized: %q", docs[0].Content)
	}
}

func TestLoadDocumentsMissingDirectory(t *testing.T) {
	if _, err := LoadDocuments(t.TempDir()+"/missing", log.New(io.Discard, "", 0)); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
