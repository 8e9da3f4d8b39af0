package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file reads as absent", func(t *testing.T) {
		s := NewFileStorage(filepath.Join(t.TempDir(), "storage.json"))

		_, ok, err := s.Get(ctx, StorageKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "storage.json")
		s := NewFileStorage(path)

		require.NoError(t, s.Set(ctx, StorageKey, "[]"))
		require.NoError(t, s.Set(ctx, "token", "abc"))

		v, ok, err := s.Get(ctx, StorageKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "[]", v)

		v, ok, err = s.Get(ctx, "token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc", v)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
		s := NewFileStorage(path)

		_, _, err := s.Get(ctx, StorageKey)
		assert.Error(t, err)
	})

	t.Run("cart survives reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")

		c := Load(ctx, NewFileStorage(path), zap.NewNop())
		c.Add(ctx, domain.CartItem{ID: "1", Name: "Watch", Price: 100})

		reloaded := Load(ctx, NewFileStorage(path), zap.NewNop())
		assert.Equal(t, c.Items(), reloaded.Items())
	})
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("namespaces keys per shopper", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		s := NewRedisStorage(client, "user-1")

		require.NoError(t, s.Set(ctx, StorageKey, "[]"))

		v, err := mr.Get("cart:user-1:cart")
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
		assert.Equal(t, DefaultRedisTTL, mr.TTL("cart:user-1:cart"))
	})

	t.Run("missing key reads as absent", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		s := NewRedisStorage(client, "user-1")

		_, ok, err := s.Get(ctx, StorageKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("shoppers do not share carts", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		a := Load(ctx, NewRedisStorage(client, "a"), zap.NewNop())
		a.Add(ctx, domain.CartItem{ID: "1", Price: 10})

		b := Load(ctx, NewRedisStorage(client, "b"), zap.NewNop())
		assert.Equal(t, 0, b.Len())

		again := Load(ctx, NewRedisStorage(client, "a"), zap.NewNop())
		assert.Equal(t, a.Items(), again.Items())
	})

	t.Run("expired cart reads as absent", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		s := NewRedisStorage(client, "user-1")
		require.NoError(t, s.Set(ctx, StorageKey, "[]"))

		mr.FastForward(DefaultRedisTTL + time.Second)

		_, ok, err := s.Get(ctx, StorageKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unreachable redis is an error", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		mr.Close()
		s := NewRedisStorage(client, "user-1")

		_, _, err := s.Get(ctx, StorageKey)
		assert.Error(t, err)
	})
}
