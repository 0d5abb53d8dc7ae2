package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-deck/pkg/simpledeck/store"
)

func TestRepository_CRUD(t *testing.T) {
	repo := New()
	ctx := context.Background()

	rec := &store.Record{
		ID:           "a1",
		OriginalName: "q3.pptx",
		Size:         204800,
		ObjectKey:    "decks/a1/q3.pptx",
		UploadedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.ErrorIs(t, repo.Create(ctx, rec), store.ErrDuplicateRecord)

	// Stored copies are independent of the caller's value
	rec.OriginalName = "changed.pptx"
	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "q3.pptx", got.OriginalName)

	require.NoError(t, repo.Delete(ctx, "a1"))
	_, err = repo.Get(ctx, "a1")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a1"), store.ErrRecordNotFound)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Create(ctx, &store.Record{
			ID:         id,
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "new", recs[0].ID)
	assert.Equal(t, "mid", recs[1].ID)
	assert.Equal(t, "old", recs[2].ID)
}
