// Package ingestion turns raw documentation files into classified,
// overlapping text chunks ready for embedding.
package ingestion

import (
	"log"
)

// Chunk is the atomic unit stored and retrieved: a bounded slice of one
// document's text plus its metadata record.
type Chunk struct {
	Text string
	Meta Metadata
}

// Service runs the build-phase document pipeline: metadata extraction once
// per document, structural splitting, and chunk ID assignment from a
// run-scoped counter.
type Service struct {
	splitter *Splitter
	logger   *log.Logger
}

func NewService(splitter *Splitter, logger *log.Logger) *Service {
	if splitter == nil {
		splitter = NewSplitter(1000, 200)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{splitter: splitter, logger: logger}
}

// Process converts loaded documents into the ordered chunk corpus. A
// document that splits to nothing is logged and skipped; it is not an
// error. Chunk IDs are unique across the whole run.
func (s *Service) Process(docs []Document) []Chunk {
	counter := 0
	chunks := make([]Chunk, 0, len(docs))

	for _, doc := range docs {
		meta := ExtractMetadata(doc.Path)

		parts := s.splitter.Split(doc.Content)
		if len(parts) == 0 {
			s.logger.Printf("skip empty document %s", doc.Path)
			continue
		}

		for _, text := range parts {
			chunks = append(chunks, Chunk{Text: text, Meta: meta.WithChunkID(counter)})
			counter++
		}
	}

	s.logger.Printf("processed %d documents into %d chunks", len(docs), len(chunks))
	return chunks
}

// IngestDirectory loads and processes every supported document under dir.
func (s *Service) IngestDirectory(dir string) ([]Chunk, error) {
	docs, err := LoadDocuments(dir, s.logger)
	if err != nil {
		return nil, err
	}
	return s.Process(docs), nil
}

// EstimateTokens gives a rough token count for embedding cost estimation.
// Four bytes per token tracks the common BPE vocabularies closely enough
// for a yes/no prompt.
func EstimateTokens(chunks []Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c.Text) / 4
	}
	return total
}
