package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// DocumentFormat enumerates supported document payload formats.
type DocumentFormat string

const (
	FormatUnknown DocumentFormat = ""
	FormatText    DocumentFormat = "text"
	FormatPDF     DocumentFormat = "pdf"
)

// Document is a raw source file loaded for ingestion. It is consumed once
// by the splitter and then discarded.
type Document struct {
	Path    string
	Content string
}

// DetectFormat infers a document format from the path's extension.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".rst", ".md", ".markdown":
		return FormatText
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// LoadDocuments walks dir recursively and loads every supported file. A
// file that cannot be read or parsed is logged and skipped; loading only
// fails as a whole when the directory itself is unusable.
func LoadDocuments(dir string, logger *log.Logger) ([]Document, error) {
	if logger == nil {
		logger = log.Default()
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("docs directory: %w", err)
	}

	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		format := DetectFormat(path)
		if format == FormatUnknown {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Printf("skip unreadable file %s: %v", path, readErr)
			return nil
		}

		content, parseErr := extractText(format, data)
		if parseErr != nil {
			logger.Printf("skip unparsable file %s: %v", path, parseErr)
			return nil
		}

		docs = append(docs, Document{Path: path, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs directory: %w", err)
	}
	return docs, nil
}

func extractText(format DocumentFormat, data []byte) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDFText(data)
	default:
		return normalizeNewlines(string(data)), nil
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return normalizeNewlines(buf.String()), nil
}

func normalizeNewlines(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}
