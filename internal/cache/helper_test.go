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

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestGetSetJSONRoundTrip(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	var missing cachedValue
	found, err := GetJSON(ctx, "missing", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := cachedValue{Name: "feed", Count: 3}
	require.NoError(t, SetJSON(ctx, "k", want, time.Minute))

	var got cachedValue
	found, err = GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestSetJSONExpires(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, "k", cachedValue{Name: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got cachedValue
	found, err := GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, "k", cachedValue{Name: "x"}, time.Minute))
	require.NoError(t, Delete(ctx, "k"))

	var got cachedValue
	found, err := GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheAside(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedValue) func() error {
		return func() error {
			calls++
			*dest = cachedValue{Name: "fetched", Count: calls}
			return nil
		}
	}

	var first cachedValue
	require.NoError(t, CacheAside(ctx, "k", &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fetched", first.Name)

	// Second read is served from the cache.
	var second cachedValue
	require.NoError(t, CacheAside(ctx, "k", &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCacheAsideFetchError(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	wantErr := assert.AnError
	var dest cachedValue
	err := CacheAside(ctx, "k", &dest, time.Minute, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	// The failed fetch must not have cached anything.
	found, err := GetJSON(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHelpersNoopWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	var got cachedValue
	found, err := GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, "k", cachedValue{}, time.Minute))
	require.NoError(t, Delete(ctx, "k"))

	calls := 0
	require.NoError(t, CacheAside(ctx, "k", &got, time.Minute, func() error {
		calls++
		got = cachedValue{Name: "direct"}
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "direct", got.Name)
}
