package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

func backends(t *testing.T) map[string]Repository {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Repository{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			vector := models.Embedding{0.25, -1.5, 3}
			id, err := repo.RegisterBook(ctx, models.NewBook{Title: "Dune", ISBN: "9780441013593", URL: "https://example.org/dune"}, vector)
			require.NoError(t, err)
			assert.NotZero(t, id)

			book, err := repo.GetBook(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "Dune", book.Title)
			assert.Equal(t, "9780441013593", book.ISBN)
			assert.True(t, book.HasEmbedding)
			assert.False(t, book.CreatedAt.IsZero())

			candidates, err := repo.ListCandidates(ctx)
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, id, candidates[0].ID)
			assert.Equal(t, vector, candidates[0].Vector)

			require.NoError(t, repo.SetCoverPath(ctx, id, "covers/book_1_abcd1234.jpg"))
			book, err = repo.GetBook(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "covers/book_1_abcd1234.jpg", book.CoverPath)
		})
	}
}

func TestGetBookNotFound(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetBook(ctx, 404)
			assert.True(t, errors.Is(err, ErrNotFound))

			err = repo.SetCoverPath(ctx, 404, "x.jpg")
			assert.True(t, errors.Is(err, ErrNotFound))

			err = repo.UpsertEmbedding(ctx, 404, models.Embedding{1})
			assert.True(t, errors.Is(err, ErrNotFound))

			_, err = repo.DeleteBook(ctx, 404)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestUpsertEmbeddingReplacesVector(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id, err := repo.RegisterBook(ctx, models.NewBook{Title: "Emma"}, models.Embedding{1, 0})
			require.NoError(t, err)

			require.NoError(t, repo.UpsertEmbedding(ctx, id, models.Embedding{0, 1}))

			candidates, err := repo.ListCandidates(ctx)
			require.NoError(t, err)
			require.Len(t, candidates, 1, "re-registration must not duplicate the candidate")
			assert.Equal(t, models.Embedding{0, 1}, candidates[0].Vector)
		})
	}
}

func TestCandidatesOrderedByID(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var ids []models.BookID
			for _, title := range []string{"A", "B", "C"} {
				id, err := repo.RegisterBook(ctx, models.NewBook{Title: title}, models.Embedding{1})
				require.NoError(t, err)
				ids = append(ids, id)
			}

			candidates, err := repo.ListCandidates(ctx)
			require.NoError(t, err)
			require.Len(t, candidates, 3)
			for i, c := range candidates {
				assert.Equal(t, ids[i], c.ID)
			}
		})
	}
}

func TestDeleteBookRemovesEmbedding(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keep, err := repo.RegisterBook(ctx, models.NewBook{Title: "Keep"}, models.Embedding{1, 1})
			require.NoError(t, err)
			drop, err := repo.RegisterBook(ctx, models.NewBook{Title: "Drop"}, models.Embedding{2, 2})
			require.NoError(t, err)
			require.NoError(t, repo.SetCoverPath(ctx, drop, "covers/drop.jpg"))

			deleted, err := repo.DeleteBook(ctx, drop)
			require.NoError(t, err)
			assert.Equal(t, "Drop", deleted.Title)
			assert.Equal(t, "covers/drop.jpg", deleted.CoverPath)

			candidates, err := repo.ListCandidates(ctx)
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, keep, candidates[0].ID)

			stats, err := repo.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.StoreStats{Books: 1, Embeddings: 1}, stats)

			books, err := repo.ListBooks(ctx)
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, "Keep", books[0].Title)
		})
	}
}

func TestMemoryStoreReturnsSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.RegisterBook(ctx, models.NewBook{Title: "Snapshot"}, models.Embedding{1, 2})
	require.NoError(t, err)

	candidates, err := store.ListCandidates(ctx)
	require.NoError(t, err)
	candidates[0].Vector[0] = 99

	require.NoError(t, store.UpsertEmbedding(ctx, id, models.Embedding{3, 4}))

	again, err := store.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Embedding{3, 4}, again[0].Vector)
	assert.Equal(t, float32(99), candidates[0].Vector[0])
}

func TestVectorRoundTrip(t *testing.T) {
	v := models.Embedding{0, 1, -1, 3.5, 1e-8}
	got, err := DecodeVector(EncodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`UPDATE books SET cover_path = ? WHERE id = ?`)
	if got != `UPDATE books SET cover_path = $1 WHERE id = $2` {
		t.Errorf("Expected dollar placeholders, got %s", got)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongodb", "")
	assert.Error(t, err)

	repo, err := Open(context.Background(), "memory", "")
	require.NoError(t, err)
	assert.NoError(t, repo.Ping(context.Background()))
}
