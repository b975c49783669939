// Package store persists (text, vector, metadata) triples in a named local
// collection and answers nearest-neighbor queries over it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/pandadocs/rag-assistant/config"
	"github.com/pandadocs/rag-assistant/embeddings"
	"github.com/pandadocs/rag-assistant/ingestion"
)

// ErrUnavailable reports that the persisted store cannot be opened or
// queried, typically because no build has run yet. Query-phase callers
// treat it as recoverable.
var ErrUnavailable = errors.New("vector store unavailable")

// Result is one retrieved chunk, scored by similarity (higher is more
// relevant).
type Result struct {
	Text  string
	Meta  ingestion.Metadata
	Score float64
}

// Backend is the storage seam under the gateway. Replace swaps the whole
// collection in one transaction; Query returns up to k rows ordered by
// descending similarity.
type Backend interface {
	Replace(ctx context.Context, collection string, chunks []ingestion.Chunk, vectors [][]float32) error
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Result, error)
	Count(ctx context.Context, collection string) (int, error)
	Drop(ctx context.Context, collection string) error
	Close() error
}

// Gateway binds an embedder to a storage backend. The build phase assumes
// a single writer; query-phase gateways are safe to share read-only.
type Gateway struct {
	backend    Backend
	embedder   embeddings.Embedder
	collection string
	logger     *log.Logger
}

func NewGateway(backend Backend, embedder embeddings.Embedder, collection string, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{backend: backend, embedder: embedder, collection: collection, logger: logger}
}

// Create opens (or initializes) the configured backend for the build
// phase.
func Create(ctx context.Context, cfg config.Config, embedder embeddings.Embedder, logger *log.Logger) (*Gateway, error) {
	backend, err := newBackend(ctx, cfg, true)
	if err != nil {
		return nil, err
	}
	return NewGateway(backend, embedder, cfg.Collection, logger), nil
}

// Open opens existing persisted storage for the query phase. It fails with
// an error wrapping ErrUnavailable when no prior build exists or storage
// is unreadable.
func Open(ctx context.Context, cfg config.Config, embedder embeddings.Embedder, logger *log.Logger) (*Gateway, error) {
	backend, err := newBackend(ctx, cfg, false)
	if err != nil {
		return nil, err
	}
	return NewGateway(backend, embedder, cfg.Collection, logger), nil
}

func newBackend(ctx context.Context, cfg config.Config, create bool) (Backend, error) {
	switch cfg.Store.Type {
	case "", "sqlite":
		return newSQLiteBackend(filepath.Join(cfg.DataDir, "index.db"), create)
	case "postgres":
		return newPostgresBackend(ctx, cfg.Store.PostgresDSN, cfg.Embedding.Dimension, create)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}

// Build embeds every chunk text and replaces the collection with the new
// triples. Rebuilding an existing collection discards its prior contents;
// append-without-dedup is deliberately not supported.
func (g *Gateway) Build(ctx context.Context, chunks []ingestion.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to store")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := g.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: have %d chunks, %d vectors", len(chunks), len(vectors))
	}

	if err := g.backend.Replace(ctx, g.collection, chunks, vectors); err != nil {
		return fmt.Errorf("persist collection %q: %w", g.collection, err)
	}

	g.logger.Printf("stored %d chunks in collection %q", len(chunks), g.collection)
	return nil
}

// Search embeds the query and returns up to k chunks in descending
// similarity order. An empty collection yields an empty result, not an
// error.
func (g *Gateway) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 1 {
		k = 1
	}

	vector, err := g.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := g.backend.Query(ctx, g.collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search collection %q: %w", g.collection, err)
	}
	return results, nil
}

// Count reports how many chunks the collection holds.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	return g.backend.Count(ctx, g.collection)
}

// Drop removes the persisted collection.
func (g *Gateway) Drop(ctx context.Context) error {
	return g.backend.Drop(ctx, g.collection)
}

func (g *Gateway) Close() error {
	return g.backend.Close()
}
