package ingestion

import (
	"fmt"
	stdpath "path"
	"path/filepath"
	"strings"
)

// DocType classifies a document by the part of the documentation tree it
// came from. Classification happens once per document and every chunk of
// that document carries the same value.
type DocType string

const (
	DocTypeAPIReference     DocType = "API_REFERENCE"
	DocTypeTutorialGuide    DocType = "TUTORIAL_GUIDE"
	DocTypeDevelopmentGuide DocType = "DEVELOPMENT_GUIDE"
	DocTypeGeneral          DocType = "GENERAL"
)

// apiExtension is the multi-part extension of exported API reference pages
// (e.g. pandas.DataFrame.agg.rst.txt).
const apiExtension = ".rst.txt"

// Metadata is the classification record attached to every chunk. Source and
// DocType are derived from the document path; APIName is only set for API
// reference pages whose filename follows the export convention; ChunkID is
// stamped per chunk by the ingestion run.
type Metadata struct {
	Source  string
	DocType DocType
	APIName string
	ChunkID string
}

// ExtractMetadata derives a metadata record from a document's source path.
// Rules are evaluated in priority order on the forward-slash form of the
// path. A filename that does not follow the API naming convention leaves
// APIName empty; that is not an error.
func ExtractMetadata(path string) Metadata {
	// ToSlash only rewrites the host separator, so backslashes from paths
	// recorded on another platform are normalized explicitly.
	normalized := strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")
	base := stdpath.Base(normalized)

	meta := Metadata{Source: base, DocType: DocTypeGeneral}

	switch {
	case strings.Contains(normalized, "reference/api"):
		meta.DocType = DocTypeAPIReference
		if strings.HasSuffix(base, apiExtension) {
			meta.APIName = strings.TrimSuffix(base, apiExtension)
		}
	case strings.Contains(normalized, "getting_started"), strings.Contains(normalized, "user_guide"):
		meta.DocType = DocTypeTutorialGuide
	case strings.Contains(normalized, "development"):
		meta.DocType = DocTypeDevelopmentGuide
	}

	return meta
}

// WithChunkID returns a copy of the record carrying a corpus-unique chunk
// identifier. The counter is owned by the ingestion run and increases
// monotonically across all documents of that run.
func (m Metadata) WithChunkID(counter int) Metadata {
	base := m.APIName
	if base == "" {
		base = m.Source
	}
	if base == "" {
		base = "chunk"
	}
	m.ChunkID = fmt.Sprintf("%s_%d", base, counter)
	return m
}
