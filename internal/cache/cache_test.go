package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "prospect:ada@example.com", entry{Name: "Ada", Email: "ada@example.com"}, time.Minute))
	assert.True(t, mr.Exists("prospect:ada@example.com"))

	var got entry
	found, err := c.Get(ctx, "prospect:ada@example.com", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ada", got.Name)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	var got entry
	found, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got.Email)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "Ada"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))

	var got entry
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, c.Delete(ctx, "never-set"))
}
