package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/pandadocs/rag-assistant/ingestion"
)

// postgresBackend keeps collections in Postgres with the pgvector
// extension. It exists for setups where the corpus outgrows the in-process
// sqlite scan; the gateway contract is identical.
type postgresBackend struct {
	pool      *pgxpool.Pool
	dimension int
}

func newPostgresBackend(ctx context.Context, dsn string, dimension int, create bool) (*postgresBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store selected but POSTGRES_DSN not set")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		if create {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b := &postgresBackend{pool: pool, dimension: dimension}
	if create {
		if err := b.ensureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return b, nil
}

func (b *postgresBackend) ensureSchema(ctx context.Context) error {
	if b.dimension <= 0 {
		return fmt.Errorf("embedding dimension must be configured for the postgres store")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
			id UUID PRIMARY KEY,
			collection TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			source TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			api_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, b.dimension),
		"CREATE INDEX IF NOT EXISTS idx_rag_chunks_collection ON rag_chunks(collection)",
		"CREATE INDEX IF NOT EXISTS idx_rag_chunks_embedding ON rag_chunks USING ivfflat (embedding vector_cosine_ops)",
	}

	for _, stmt := range stmts {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

func (b *postgresBackend) Replace(ctx context.Context, collection string, chunks []ingestion.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM rag_chunks WHERE collection = $1", collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rag_chunks (id, collection, chunk_id, source, doc_type, api_name, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			uuid.New(),
			collection,
			chunk.Meta.ChunkID,
			chunk.Meta.Source,
			string(chunk.Meta.DocType),
			chunk.Meta.APIName,
			chunk.Text,
			pgvector.NewVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, collection string, vector []float32, k int) ([]Result, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT chunk_id, source, doc_type, api_name, content,
		       (embedding <=> $1::vector) AS distance
		FROM rag_chunks
		WHERE collection = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, pgvector.NewVector(vector), collection, k)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0, k)
	for rows.Next() {
		var (
			item     Result
			docType  string
			distance float64
		)
		if err := rows.Scan(&item.Meta.ChunkID, &item.Meta.Source, &docType, &item.Meta.APIName, &item.Text, &distance); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		item.Meta.DocType = ingestion.DocType(docType)
		// Cosine distance is 1 - similarity.
		item.Score = 1 - distance
		results = append(results, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

func (b *postgresBackend) Count(ctx context.Context, collection string) (int, error) {
	var count int
	if err := b.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rag_chunks WHERE collection = $1", collection).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (b *postgresBackend) Drop(ctx context.Context, collection string) error {
	if _, err := b.pool.Exec(ctx, "DELETE FROM rag_chunks WHERE collection = $1", collection); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}

var _ Backend = (*postgresBackend)(nil)
