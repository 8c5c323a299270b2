package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

func TestMockStore(t *testing.T) {
	t.Run("Transactions", func(t *testing.T) {
		store := storage.NewMockStore()
		assert.Error(t, store.Commit(), "commit outside a transaction")

		tx, err := store.Begin()
		require.NoError(t, err)
		require.NoError(t, tx.SaveTask(models.SprintTask{ID: "a", Title: "A"}))
		require.NoError(t, tx.Commit())
		assert.Error(t, tx.SaveTask(models.SprintTask{ID: "b", Title: "B"}), "writes after commit")
		assert.Error(t, tx.Rollback())

		_, err = store.GetTask("a")
		assert.NoError(t, err)
	})

	t.Run("ProgressMerges", func(t *testing.T) {
		store := storage.NewMockStore()
		require.NoError(t, store.UpsertProgress(models.ProgressUpdate{UserID: "u", TaskID: "t", Answers: map[string]any{"a": 1}}))
		require.NoError(t, store.UpsertProgress(models.ProgressUpdate{UserID: "u", TaskID: "t", Answers: map[string]any{"b": 2}}))

		p, err := store.GetProgress("u", "t")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, p.Answers)

		p.Answers["c"] = 3
		again, err := store.GetProgress("u", "t")
		require.NoError(t, err)
		assert.NotContains(t, again.Answers, "c", "reads return copies")
	})

	t.Run("CompletionTimestamps", func(t *testing.T) {
		store := storage.NewMockStore()
		done, undone := true, false
		require.NoError(t, store.UpsertProgress(models.ProgressUpdate{UserID: "u", TaskID: "t", Completed: &done}))
		p, err := store.GetProgress("u", "t")
		require.NoError(t, err)
		require.NotNil(t, p.CompletedAt)

		require.NoError(t, store.UpsertProgress(models.ProgressUpdate{UserID: "u", TaskID: "t", Completed: &undone}))
		p, err = store.GetProgress("u", "t")
		require.NoError(t, err)
		assert.False(t, p.Completed)
		assert.Nil(t, p.CompletedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := storage.NewMockStore()
		_, err := store.GetTask("x")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetProfile("x")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetCollaborator("x", "y")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
