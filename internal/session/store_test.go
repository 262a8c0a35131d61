package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/Colin123/equitylab-ui/internal/testing"
)

var fixedNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	db := testhelpers.NewTestDB(t, "sessions")

	store := NewSQLiteStore(db, testhelpers.NopLogger())
	store.now = func() time.Time { return fixedNow }
	return store
}

func newMemoryStore() *MemoryStore {
	store := NewMemoryStore()
	store.now = func() time.Time { return fixedNow }
	return store
}

// Behaviour shared by the memory and sqlite stores
func TestStores_RoundTripAndExpiry(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return newMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
	}

	for name, factory := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			s := newSession("abc", fixedNow.Add(time.Hour))
			s.Set("profile", `{"user_id":"auth0|1"}`)
			require.NoError(t, store.Save(ctx, s))

			got, err := store.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, `{"user_id":"auth0|1"}`, got.Get("profile"))
			assert.False(t, got.IsNew())

			s.Set("page", "stock-list")
			require.NoError(t, store.Save(ctx, s))
			got, err = store.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "stock-list", got.Get("page"))

			expired := newSession("old", fixedNow.Add(-time.Second))
			require.NoError(t, store.Save(ctx, expired))
			_, err = store.Get(ctx, "old")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Delete(ctx, "abc"))
			_, err = store.Get(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, store.Delete(ctx, "never-existed"))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	s := newSession("abc", fixedNow.Add(time.Hour))
	s.Set("k", "v")
	require.NoError(t, store.Save(ctx, s))

	s.Set("k", "changed")
	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Get("k"))

	got.Set("k", "mutated")
	again, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Get("k"))
}

func TestMemoryStore_LazyExpiryRemovesEntry(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	require.NoError(t, store.Save(ctx, newSession("old", fixedNow.Add(-time.Minute))))
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Save(ctx, newSession("a", fixedNow.Add(-time.Minute))))
	require.NoError(t, store.Save(ctx, newSession("b", fixedNow.Add(-time.Hour))))
	require.NoError(t, store.Save(ctx, newSession("c", fixedNow.Add(time.Hour))))

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Get(ctx, "c")
	assert.NoError(t, err)
}

func newRedisStore(t *testing.T) (*RedisStore, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")
	store.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return store, mock
}

func TestRedisStore_Save(t *testing.T) {
	ctx := context.Background()
	store, mock := newRedisStore(t)

	s := newSession("abc", fixedNow.Add(30*time.Minute))
	s.Set("profile", "p")

	data, err := json.Marshal(redisRecord{Values: s.Values, ExpiresAt: s.ExpiresAt.Unix()})
	require.NoError(t, err)
	mock.ExpectSet(DefaultRedisPrefix+"abc", data, 30*time.Minute).SetVal("OK")

	assert.NoError(t, store.Save(ctx, s))
}

func TestRedisStore_SaveExpiredDeletes(t *testing.T) {
	ctx := context.Background()
	store, mock := newRedisStore(t)

	mock.ExpectDel(DefaultRedisPrefix + "abc").SetVal(1)
	assert.NoError(t, store.Save(ctx, newSession("abc", fixedNow.Add(-time.Second))))
}

func TestRedisStore_Get(t *testing.T) {
	ctx := context.Background()
	store, mock := newRedisStore(t)

	t.Run("hit", func(t *testing.T) {
		data, _ := json.Marshal(redisRecord{
			Values:    map[string]string{"page": "sector-overview"},
			ExpiresAt: fixedNow.Add(time.Hour).Unix(),
		})
		mock.ExpectGet(DefaultRedisPrefix + "abc").SetVal(string(data))

		s, err := store.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "sector-overview", s.Get("page"))
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet(DefaultRedisPrefix + "nope").RedisNil()

		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend error", func(t *testing.T) {
		mock.ExpectGet(DefaultRedisPrefix + "abc").SetErr(errors.New("connection refused"))

		_, err := store.Get(ctx, "abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_Delete(t *testing.T) {
	store, mock := newRedisStore(t)

	mock.ExpectDel(DefaultRedisPrefix + "abc").SetVal(1)
	assert.NoError(t, store.Delete(context.Background(), "abc"))
}
