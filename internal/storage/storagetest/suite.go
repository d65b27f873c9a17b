// Package storagetest holds behavior checks shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/academiax/internal/storage"
)

// Run exercises store against the Collection contract. Each subtest uses its
// own collection name so backends need no cleanup between cases.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert then find by id", func(t *testing.T) {
		c := store.Collection("suite_roundtrip")

		created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
		id, err := c.InsertOne(ctx, storage.Document{
			"email":     "a@x.io",
			"title":     "read chapter 3",
			"completed": false,
			"priority":  2,
			"tags":      []any{"exam", "math"},
			"createdAt": created,
		})
		require.NoError(t, err)
		assert.True(t, storage.ValidID(id), "id %q", id)

		doc, err := c.FindOne(ctx, storage.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID())
		assert.Equal(t, "a@x.io", doc["email"])
		assert.Equal(t, "read chapter 3", doc["title"])
		assert.Equal(t, false, doc["completed"])
		assert.True(t, storage.Equal(doc["priority"], 2))
		assert.True(t, storage.Equal(doc["createdAt"], created), "createdAt %v", doc["createdAt"])
		assert.Len(t, doc["tags"], 2)
	})

	t.Run("find filters by field and keeps order", func(t *testing.T) {
		c := store.Collection("suite_filter")
		for _, email := range []string{"a@x.io", "b@x.io", "a@x.io"} {
			_, err := c.InsertOne(ctx, storage.Document{"email": email, "n": len(email)})
			require.NoError(t, err)
		}

		all, err := c.Find(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		mine, err := c.Find(ctx, storage.Filter{"email": "a@x.io"})
		require.NoError(t, err)
		require.Len(t, mine, 2)
		for _, doc := range mine {
			assert.Equal(t, "a@x.io", doc["email"])
		}
		assert.Less(t, mine[0].ID(), mine[1].ID())

		none, err := c.Find(ctx, storage.Filter{"email": "nobody@x.io"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("find one misses", func(t *testing.T) {
		c := store.Collection("suite_missing")
		_, err := c.FindOne(ctx, storage.ByID(storage.NewID()))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update merges fields", func(t *testing.T) {
		c := store.Collection("suite_update")
		id, err := c.InsertOne(ctx, storage.Document{"email": "a@x.io", "title": "old", "completed": false})
		require.NoError(t, err)

		res, err := c.UpdateOne(ctx, storage.Filter{"_id": id, "email": "a@x.io"}, storage.Document{"completed": true})
		require.NoError(t, err)
		assert.Equal(t, storage.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, res)

		doc, err := c.FindOne(ctx, storage.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, true, doc["completed"])
		assert.Equal(t, "old", doc["title"])

		res, err = c.UpdateOne(ctx, storage.ByID(id), storage.Document{"completed": true})
		require.NoError(t, err)
		assert.Equal(t, storage.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, res)

		res, err = c.UpdateOne(ctx, storage.Filter{"_id": id, "email": "b@x.io"}, storage.Document{"title": "stolen"})
		require.NoError(t, err)
		assert.Equal(t, storage.UpdateResult{}, res)

		doc, err = c.FindOne(ctx, storage.ByID(id))
		require.NoError(t, err)
		assert.Equal(t, "old", doc["title"])
	})

	t.Run("delete", func(t *testing.T) {
		c := store.Collection("suite_delete")
		id, err := c.InsertOne(ctx, storage.Document{"email": "a@x.io"})
		require.NoError(t, err)
		_, err = c.InsertOne(ctx, storage.Document{"email": "b@x.io"})
		require.NoError(t, err)

		n, err := c.DeleteOne(ctx, storage.ByID(storage.NewID()))
		require.NoError(t, err)
		assert.Zero(t, n)

		all, err := c.Find(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		n, err = c.DeleteOne(ctx, storage.ByID(id))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = c.FindOne(ctx, storage.ByID(id))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		_, err := store.Collection("suite_iso_a").InsertOne(ctx, storage.Document{"email": "a@x.io"})
		require.NoError(t, err)

		docs, err := store.Collection("suite_iso_b").Find(ctx, storage.Filter{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
