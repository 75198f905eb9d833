// Package chunkstore is the relational store for persisted chunk text and
// page/index metadata (spec component D). It is grounded on the
// transactional-insert and schema-management shape of a sibling example
// repo's pgvector store, adapted to drop the embedding column entirely:
// embeddings live only in the vector store here (§3).
package chunkstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns the document_chunks table.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures document_chunks exists.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: connect: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases pooled connections.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS document_chunks (
	id UUID PRIMARY KEY,
	document_id TEXT NOT NULL,
	chunk_index INT NOT NULL,
	content TEXT NOT NULL,
	page_number INT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS document_chunks_document_idx
	ON document_chunks (document_id);
`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("chunkstore: ensure schema: %w", err)
	}
	return nil
}

// PendingChunk is one not-yet-persisted chunk produced by the parser, in
// document order.
type PendingChunk struct {
	Content    string
	PageNumber *int
}

// InsertDocumentChunks persists chunks for one document atomically
// (all-or-nothing, per §4.7 step 5) and returns their freshly minted ids in
// the same order as input.
func (s *Store) InsertDocumentChunks(ctx context.Context, documentID string, chunks []PendingChunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]string, len(chunks))
	now := time.Now().UTC()
	for idx, c := range chunks {
		id := uuid.NewString()
		ids[idx] = id
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (id, document_id, chunk_index, content, page_number, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, documentID, idx, c.Content, c.PageNumber, now,
		); err != nil {
			return nil, fmt.Errorf("chunkstore: insert chunk %d: %w", idx, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("chunkstore: commit: %w", err)
	}
	return ids, nil
}

// GetByIDs fetches chunk rows by id. Ids with no matching row are simply
// absent from the result (stale-pointer handling is the caller's
// responsibility, per §4.5 step 5).
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, chunk_index, content, page_number, created_at
		 FROM document_chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: get by ids: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.PageNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("chunkstore: scan chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chunkstore: iterate chunks: %w", err)
	}
	return out, nil
}

// DeleteByDocument removes every chunk row for a document. Neither the
// DeleteDocument RPC nor the ingestion worker calls it: DeleteDocument
// removes vector points only and leaves chunk rows to the control plane
// (§4.7).
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("chunkstore: delete by document %s: %w", documentID, err)
	}
	return nil
}
