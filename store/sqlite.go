package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pandadocs/rag-assistant/ingestion"
)

// sqliteBackend is the default directory-backed local store: one database
// file under the data directory, vectors as float32 blobs, brute-force
// cosine search in process. Collections at this scale are small enough
// that a scan beats maintaining an index.
type sqliteBackend struct {
	db *sqlx.DB
}

func newSQLiteBackend(path string, create bool) (*sqliteBackend, error) {
	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s (run build first)", ErrUnavailable, path)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		if create {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b := &sqliteBackend{db: db}
	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return b, nil
}

func (b *sqliteBackend) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			source TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			api_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection)`,
	}
	for _, stmt := range stmts {
		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

func (b *sqliteBackend) Replace(ctx context.Context, collection string, chunks []ingestion.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO chunks (id, collection, chunk_id, source, doc_type, api_name, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			collection,
			chunk.Meta.ChunkID,
			chunk.Meta.Source,
			string(chunk.Meta.DocType),
			chunk.Meta.APIName,
			chunk.Text,
			encodeVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqliteRow struct {
	ChunkID   string  `db:"chunk_id"`
	Source    string  `db:"source"`
	DocType   string  `db:"doc_type"`
	APIName   string  `db:"api_name"`
	Content   string  `db:"content"`
	Embedding []byte  `db:"embedding"`
	score     float64 `db:"-"`
}

func (b *sqliteBackend) Query(ctx context.Context, collection string, vector []float32, k int) ([]Result, error) {
	var rows []sqliteRow
	err := b.db.SelectContext(ctx, &rows, `
		SELECT chunk_id, source, doc_type, api_name, content, embedding
		FROM chunks WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	if len(rows) == 0 {
		return []Result{}, nil
	}

	for i := range rows {
		stored, err := decodeVector(rows[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", rows[i].ChunkID, err)
		}
		score, err := cosineSimilarity(stored, vector)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", rows[i].ChunkID, err)
		}
		rows[i].score = score
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].score > rows[j].score
	})
	if k < len(rows) {
		rows = rows[:k]
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			Text: row.Content,
			Meta: ingestion.Metadata{
				Source:  row.Source,
				DocType: ingestion.DocType(row.DocType),
				APIName: row.APIName,
				ChunkID: row.ChunkID,
			},
			Score: row.score,
		})
	}
	return results, nil
}

func (b *sqliteBackend) Count(ctx context.Context, collection string) (int, error) {
	var count int
	if err := b.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (b *sqliteBackend) Drop(ctx context.Context, collection string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*sqliteBackend)(nil)
