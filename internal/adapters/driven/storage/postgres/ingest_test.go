package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

func testChunk(id string, index int) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: docID,
		OwnerID:    ownerID,
		Index:      index,
		PageNumber: 1,
		StartChar:  0,
		EndChar:    11,
		Text:       "hello world",
		WordCount:  2,
	}
}

func fixedEmbed(vec []float32, err error) func(context.Context, string) ([]float32, error) {
	return func(context.Context, string) ([]float32, error) {
		return vec, err
	}
}

func expectChunkInsert(mock sqlmock.Sqlmock, id string, index int) {
	mock.ExpectExec(`INSERT INTO pdf_chunks \(chunk_id`).
		WithArgs(id, docID, ownerID, index, 1, 0, 11, "hello world").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestIngest_CommitsChunksAndStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectChunkInsert(mock, chunkID, 0)
	mock.ExpectExec(`INSERT INTO pdf_chunks_embeddings .* \$8::vector`).
		WithArgs(chunkID, docID, ownerID, 0, "hello world", 0, 11, "[0.5,0.25]").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^RELEASE SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE pdfs SET processing_status = \$1, page_count = \$2 WHERE pdf_id = \$3::uuid AND user_id = \$4::uuid`).
		WithArgs("completed", 3, docID, ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	require.NoError(t, tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed([]float32{0.5, 0.25}, nil)))
	require.NoError(t, tx.Complete(ctx, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_CompleteRequiresOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE pdfs .* WHERE pdf_id = \$3::uuid AND user_id = \$4::uuid`).
		WithArgs("completed", 1, docID, "someone-else").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, "someone-else")
	require.NoError(t, err)

	assert.ErrorIs(t, tx.Complete(ctx, 1), domain.ErrNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_EmbeddingFailureRollsBackToSavepoint(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectChunkInsert(mock, chunkID, 0)
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	err = tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed(nil, errors.New("model overloaded")))

	assert.ErrorIs(t, err, domain.ErrPerChunkFailure)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_InsertFailureIsPerChunk(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO pdf_chunks \(chunk_id`).WillReturnError(errors.New("value too long"))
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))

	// The next chunk still goes through on the same transaction.
	next := "c2a5f6a1-2d8e-4b1f-9f6c-5d2e3b4a1c01"
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectChunkInsert(mock, next, 1)
	mock.ExpectExec(`INSERT INTO pdf_chunks_embeddings`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^RELEASE SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	err = tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed([]float32{1}, nil))
	assert.ErrorIs(t, err, domain.ErrPerChunkFailure)

	assert.NoError(t, tx.AddChunk(ctx, testChunk(next, 1), fixedEmbed([]float32{1}, nil)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_DimensionMismatchIsNotPerChunk(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectChunkInsert(mock, chunkID, 0)
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	mismatch := fmt.Errorf("%w: got 768, want 384", domain.ErrDimensionMismatch)
	err = tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed(nil, mismatch))

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.NotErrorIs(t, err, domain.ErrPerChunkFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_SavepointFailureIsFatal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnError(errors.New("connection lost"))

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	err = tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed([]float32{1}, nil))

	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.NotErrorIs(t, err, domain.ErrPerChunkFailure)
}

func TestIngest_FailedSavepointRollbackIsFatal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT chunk$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO pdf_chunks \(chunk_id`).WillReturnError(errors.New("bad row"))
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT chunk$`).WillReturnError(errors.New("connection lost"))

	ctx := context.Background()
	tx, err := store.BeginIngest(ctx, docID, ownerID)
	require.NoError(t, err)

	err = tx.AddChunk(ctx, testChunk(chunkID, 0), fixedEmbed([]float32{1}, nil))

	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.NotErrorIs(t, err, domain.ErrPerChunkFailure)
}

func TestIngest_CommitFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("could not serialize access"))

	tx, err := store.BeginIngest(context.Background(), docID, ownerID)
	require.NoError(t, err)

	assert.ErrorIs(t, tx.Commit(), domain.ErrPersistenceFailed)
}

func TestIngest_BeginFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := store.BeginIngest(context.Background(), docID, ownerID)

	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
}
