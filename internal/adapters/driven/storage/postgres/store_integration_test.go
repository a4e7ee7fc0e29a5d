//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("docuchat"),
		tcPostgres.WithUsername("docuchat"),
		tcPostgres.WithPassword("docuchat"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func vec384(hot int) []float32 {
	v := make([]float32, 384)
	v[hot] = 1
	return v
}

func TestPostgres_IngestAndSearch(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, Migrate(dsn, DirectionUp, 0))
	require.NoError(t, Migrate(dsn, DirectionUp, 0), "second run is a no-op")

	version, dirty, err := MigrationVersion(dsn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	store, err := Open(ctx, dsn, Options{MaxOpenConns: 4})
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.VectorSupport(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	doc := domain.Document{ID: uuid.NewString(), OwnerID: uuid.NewString(), FileName: "notes.txt"}
	require.NoError(t, store.EnsureDocument(ctx, doc))
	require.NoError(t, store.EnsureDocument(ctx, domain.Document{ID: doc.ID, OwnerID: doc.OwnerID, FileName: "renamed.txt"}))
	err = store.EnsureDocument(ctx, domain.Document{ID: doc.ID, OwnerID: uuid.NewString(), FileName: "evil.txt"})
	assert.ErrorIs(t, err, domain.ErrDocumentConflict)

	tx, err := store.BeginIngest(ctx, doc.ID, doc.OwnerID)
	require.NoError(t, err)

	first := domain.Chunk{ID: uuid.NewString(), DocumentID: doc.ID, OwnerID: doc.OwnerID, PageNumber: 1, Text: "alpha", EndChar: 5}
	failing := domain.Chunk{ID: uuid.NewString(), DocumentID: doc.ID, OwnerID: doc.OwnerID, Index: 1, PageNumber: 1, Text: "beta"}
	second := domain.Chunk{ID: uuid.NewString(), DocumentID: doc.ID, OwnerID: doc.OwnerID, Index: 2, PageNumber: 2, Text: "gamma"}

	require.NoError(t, tx.AddChunk(ctx, first, func(context.Context, string) ([]float32, error) { return vec384(0), nil }))
	err = tx.AddChunk(ctx, failing, func(context.Context, string) ([]float32, error) { return vec384(1)[:10], nil })
	assert.ErrorIs(t, err, domain.ErrPerChunkFailure, "wrong-sized vector is rejected by the column")
	require.NoError(t, tx.AddChunk(ctx, second, func(context.Context, string) ([]float32, error) { return vec384(2), nil }))
	require.NoError(t, tx.Complete(ctx, 2))
	require.NoError(t, tx.Commit())

	got, err := store.GetDocument(ctx, doc.ID, doc.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", got.FileName)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.PageCount)

	results, err := store.Nearest(ctx, vec384(2), []string{doc.ID}, doc.OwnerID, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second.ID, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, results[1].Similarity, 1e-6)

	_, err = store.GetChunk(ctx, failing.ID, doc.OwnerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other, err := store.Nearest(ctx, vec384(2), []string{doc.ID}, uuid.NewString(), 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	names, err := store.DocumentNames(ctx, []string{doc.ID}, doc.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, names)

	names, err = store.DocumentNames(ctx, []string{doc.ID}, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, names)

	stranger, err := store.BeginIngest(ctx, doc.ID, uuid.NewString())
	require.NoError(t, err)
	assert.ErrorIs(t, stranger.Complete(ctx, 9), domain.ErrNotFound)
	require.NoError(t, stranger.Rollback())
	assert.ErrorIs(t, store.SetStatus(ctx, doc.ID, uuid.NewString(), domain.StatusError), domain.ErrNotFound)

	require.NoError(t, Migrate(dsn, DirectionDown, 1))
	version, _, err = MigrationVersion(dsn)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestPostgres_RollbackLeavesNothing(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, Migrate(dsn, DirectionUp, 0))

	store, err := Open(ctx, dsn, Options{})
	require.NoError(t, err)
	defer store.Close()

	doc := domain.Document{ID: uuid.NewString(), OwnerID: uuid.NewString(), FileName: "a.pdf"}
	require.NoError(t, store.EnsureDocument(ctx, doc))

	tx, err := store.BeginIngest(ctx, doc.ID, doc.OwnerID)
	require.NoError(t, err)
	chunk := domain.Chunk{ID: uuid.NewString(), DocumentID: doc.ID, OwnerID: doc.OwnerID, Text: "x"}
	require.NoError(t, tx.AddChunk(ctx, chunk, func(context.Context, string) ([]float32, error) { return vec384(0), nil }))
	require.NoError(t, tx.Rollback())

	require.NoError(t, store.SetStatus(ctx, doc.ID, doc.OwnerID, domain.StatusError))

	results, err := store.Nearest(ctx, vec384(0), []string{doc.ID}, doc.OwnerID, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	got, err := store.GetDocument(ctx, doc.ID, doc.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
}
