package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/sagarc03/fragments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRepo_Upsert(t *testing.T) {
	t.Run("insert - creates new record", func(t *testing.T) {
		repo := setupTestDB(t, false).GetRepo()
		ctx := context.Background()

		rec := testRecord("owner", "a", baseTime)
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.Get(ctx, "owner", "a")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("update - replaces existing record", func(t *testing.T) {
		repo := setupTestDB(t, false).GetRepo()
		ctx := context.Background()

		rec := testRecord("owner", "a", baseTime)
		require.NoError(t, repo.Upsert(ctx, rec))

		rec.Size = 42
		rec.Updated = baseTime.Add(time.Minute)
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.Get(ctx, "owner", "a")
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.Size)
		assert.Equal(t, baseTime.Add(time.Minute), got.Updated)
		assert.Equal(t, baseTime, got.Created)
	})

	t.Run("preserves nanoseconds", func(t *testing.T) {
		repo := setupTestDB(t, false).GetRepo()
		ctx := context.Background()

		created := baseTime.Add(123456789 * time.Nanosecond)
		require.NoError(t, repo.Upsert(ctx, testRecord("owner", "a", created)))

		got, err := repo.Get(ctx, "owner", "a")
		require.NoError(t, err)
		assert.True(t, created.Equal(got.Created))
	})
}

func TestRepo_Get(t *testing.T) {
	repo := setupTestDB(t, false).GetRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testRecord("alice", "a", baseTime)))

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "alice", "missing")
		assert.ErrorIs(t, err, fragments.ErrNotFound)
	})

	t.Run("other owner cannot see record", func(t *testing.T) {
		_, err := repo.Get(ctx, "bob", "a")
		assert.ErrorIs(t, err, fragments.ErrNotFound)
	})
}

func TestRepo_Delete(t *testing.T) {
	repo := setupTestDB(t, false).GetRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testRecord("alice", "a", baseTime)))

	err := repo.Delete(ctx, "bob", "a")
	assert.ErrorIs(t, err, fragments.ErrNotFound, "delete must not cross owners")

	require.NoError(t, repo.Delete(ctx, "alice", "a"))

	_, err = repo.Get(ctx, "alice", "a")
	assert.ErrorIs(t, err, fragments.ErrNotFound)

	err = repo.Delete(ctx, "alice", "a")
	assert.ErrorIs(t, err, fragments.ErrNotFound)
}

func TestRepo_List(t *testing.T) {
	repo := setupTestDB(t, false).GetRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testRecord("alice", "c", baseTime.Add(2*time.Second))))
	require.NoError(t, repo.Upsert(ctx, testRecord("alice", "b", baseTime)))
	require.NoError(t, repo.Upsert(ctx, testRecord("alice", "a", baseTime)))
	require.NoError(t, repo.Upsert(ctx, testRecord("bob", "z", baseTime)))

	t.Run("ids ordered by created then id", func(t *testing.T) {
		ids, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("records", func(t *testing.T) {
		records, err := repo.ListRecords(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "z", records[0].ID)
		assert.Equal(t, "bob", records[0].OwnerID)
	})

	t.Run("unknown owner yields empty slice", func(t *testing.T) {
		ids, err := repo.List(ctx, "carol")
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})
}

func TestRepo_UpsertWithData(t *testing.T) {
	db := setupTestDB(t, true)
	ctx := context.Background()

	repo := db.GetRepo().(fragments.AtomicStore)
	blobs, err := db.GetBlobs()
	require.NoError(t, err)

	rec := testRecord("alice", "a", baseTime)
	require.NoError(t, repo.UpsertWithData(ctx, rec, []byte("hello")))

	data, err := blobs.Get(ctx, "alice", "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	got, err := db.GetRepo().Get(ctx, "alice", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Size)
}

func TestRepo_DeleteWithData(t *testing.T) {
	db := setupTestDB(t, true)
	ctx := context.Background()

	repo := db.GetRepo().(fragments.AtomicStore)
	blobs, err := db.GetBlobs()
	require.NoError(t, err)

	require.NoError(t, repo.UpsertWithData(ctx, testRecord("alice", "a", baseTime), []byte("hello")))

	err = repo.DeleteWithData(ctx, "bob", "a")
	assert.ErrorIs(t, err, fragments.ErrNotFound)

	_, err = blobs.Get(ctx, "alice", "a")
	assert.NoError(t, err, "failed delete must leave data in place")

	require.NoError(t, repo.DeleteWithData(ctx, "alice", "a"))

	_, err = blobs.Get(ctx, "alice", "a")
	assert.ErrorIs(t, err, fragments.ErrNotFound)
}

func TestRepo_AtomicWithoutDataTable(t *testing.T) {
	db := setupTestDB(t, false)
	ctx := context.Background()

	repo := db.GetRepo().(fragments.AtomicStore)
	err := repo.UpsertWithData(ctx, testRecord("alice", "a", baseTime), []byte("x"))
	assert.Error(t, err)

	_, err = db.GetBlobs()
	assert.Error(t, err)
}

func TestBlobs(t *testing.T) {
	db := setupTestDB(t, true)
	ctx := context.Background()

	blobs, err := db.GetBlobs()
	require.NoError(t, err)

	t.Run("put replaces in place", func(t *testing.T) {
		require.NoError(t, blobs.Put(ctx, "alice", "a", []byte("one")))
		require.NoError(t, blobs.Put(ctx, "alice", "a", []byte("two")))

		data, err := blobs.Get(ctx, "alice", "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("empty payload", func(t *testing.T) {
		require.NoError(t, blobs.Put(ctx, "alice", "empty", []byte{}))

		data, err := blobs.Get(ctx, "alice", "empty")
		require.NoError(t, err)
		assert.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("list", func(t *testing.T) {
		keys, err := blobs.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []fragments.BlobKey{
			{OwnerID: "alice", ID: "a"},
			{OwnerID: "alice", ID: "empty"},
		}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, blobs.Delete(ctx, "alice", "a"))

		err := blobs.Delete(ctx, "alice", "a")
		assert.ErrorIs(t, err, fragments.ErrNotFound)
	})

	t.Run("shares backend with repo", func(t *testing.T) {
		shared, ok := blobs.(fragments.SharedBlobStorage)
		require.True(t, ok)
		assert.Equal(t, db.GetRepo(), shared.Backend())
	})
}
