package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

func TestHandlePostgresError(t *testing.T) {
	err := handlePostgresError("create file", &pgconn.PgError{Code: "23505", ConstraintName: "deck_file_pkey"})
	assert.ErrorIs(t, err, store.ErrDuplicateRecord)

	err = handlePostgresError("get file", &pgconn.PgError{Code: "42P01"})
	assert.Contains(t, err.Error(), "migration required")

	err = handlePostgresError("get file", &pgconn.PgError{Code: "XX000", Message: "boom"})
	assert.Contains(t, err.Error(), "boom")
}

// Runs against a live database when DECK_TEST_DATABASE_URL is set.
func TestRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("DECK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DECK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewWithPool(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	rec := &store.Record{
		ID:           uuid.NewString(),
		OriginalName: "q3.pptx",
		Size:         2048,
		MimeType:     "application/vnd.ms-powerpoint",
		ObjectKey:    "decks/" + uuid.NewString() + "/q3.pptx",
		UploadedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, rec))
	defer repo.Delete(ctx, rec.ID)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.OriginalName, got.OriginalName)
	assert.True(t, rec.UploadedAt.Equal(got.UploadedAt))

	assert.ErrorIs(t, repo.Create(ctx, rec), store.ErrDuplicateRecord)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), store.ErrRecordNotFound)
}
