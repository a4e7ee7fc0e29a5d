package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

const chunkSavepoint = "chunk"

// BeginIngest opens the transaction that holds every write for one document.
func (s *Store) BeginIngest(ctx context.Context, documentID, ownerID string) (driven.IngestTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("begin", err)
	}
	return &ingestTx{tx: tx, documentID: documentID, ownerID: ownerID}, nil
}

type ingestTx struct {
	tx         *sql.Tx
	documentID string
	ownerID    string
}

// AddChunk writes the chunk and its embedding inside a savepoint. If either
// insert or the embedding fails, the savepoint is rolled back so neither
// row survives, and the transaction stays usable.
func (t *ingestTx) AddChunk(ctx context.Context, chunk domain.Chunk, embed driven.EmbedFunc) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+chunkSavepoint); err != nil {
		return dbError("savepoint", err)
	}

	if err := t.addChunk(ctx, chunk, embed); err != nil {
		// The rollback must run even when ctx is the reason we failed.
		rbCtx := context.WithoutCancel(ctx)
		if _, rbErr := t.tx.ExecContext(rbCtx, "ROLLBACK TO SAVEPOINT "+chunkSavepoint); rbErr != nil {
			return dbError("rollback to savepoint", errors.Join(err, rbErr))
		}
		return domain.AsChunkFailure(err)
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+chunkSavepoint); err != nil {
		return dbError("release savepoint", err)
	}
	return nil
}

func (t *ingestTx) addChunk(ctx context.Context, chunk domain.Chunk, embed driven.EmbedFunc) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO pdf_chunks
    (chunk_id, pdf_id, user_id, chunk_index, page_number, start_char, end_char, chunk_text)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8)
`, chunk.ID, chunk.DocumentID, chunk.OwnerID, chunk.Index,
		chunk.PageNumber, chunk.StartChar, chunk.EndChar, chunk.Text)
	if err != nil {
		return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
	}

	vector, err := embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
	}

	e := domain.NewEmbedding(chunk, vector)
	_, err = t.tx.ExecContext(ctx, `
INSERT INTO pdf_chunks_embeddings
    (chunk_id, pdf_id, user_id, chunk_index, chunk_text, start_char, end_char, embedding)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8::vector)
`, e.ChunkID, e.DocumentID, e.OwnerID, e.ChunkIndex,
		e.ChunkText, e.StartChar, e.EndChar, pgvector.NewVector(e.Vector))
	if err != nil {
		return fmt.Errorf("insert embedding %d: %w", chunk.Index, err)
	}
	return nil
}

func (t *ingestTx) Complete(ctx context.Context, pageCount int) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE pdfs
SET processing_status = $1, page_count = $2
WHERE pdf_id = $3::uuid AND user_id = $4::uuid
`, string(domain.StatusCompleted), pageCount, t.documentID, t.ownerID)
	if err != nil {
		return dbError("mark completed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError("mark completed", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *ingestTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return dbError("commit", err)
	}
	return nil
}

func (t *ingestTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return dbError("rollback", err)
	}
	return nil
}
