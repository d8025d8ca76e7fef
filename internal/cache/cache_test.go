package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		client = nil
	})
	return mr
}

type item struct {
	Name string `json:"name"`
}

func TestAside_MissThenHit(t *testing.T) {
	withMiniRedis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *item) func() error {
		return func() error {
			calls++
			dest.Name = "fresh"
			return nil
		}
	}

	var first item
	require.NoError(t, Aside(ctx, "k", &first, time.Minute, fetch(&first)))
	var second item
	require.NoError(t, Aside(ctx, "k", &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", second.Name)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := withMiniRedis(t)
	var dest item
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error { return errors.New("db down") })
	assert.Error(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestAside_NoClientFallsThrough(t *testing.T) {
	client = nil
	var dest item
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidatePosts_BumpsFeedVersion(t *testing.T) {
	mr := withMiniRedis(t)
	ctx := context.Background()

	before := FeedListKey(ctx, 20, 0)
	require.NoError(t, mr.Set(PostKey(3), "{}"))

	InvalidatePosts(ctx, 3)

	assert.NotEqual(t, before, FeedListKey(ctx, 20, 0))
	assert.False(t, mr.Exists(PostKey(3)))
}

func TestRevokeToken(t *testing.T) {
	withMiniRedis(t)
	ctx := context.Background()

	assert.False(t, IsTokenRevoked(ctx, "jti-1"))
	require.NoError(t, RevokeToken(ctx, "jti-1", time.Hour))
	assert.True(t, IsTokenRevoked(ctx, "jti-1"))
	assert.False(t, IsTokenRevoked(ctx, ""))
}
