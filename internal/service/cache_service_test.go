package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedLoadsOnceWhenEnabled(t *testing.T) {
	store := &memoryCache{}
	cache := NewCacheService(store, nil, 0, nil, true)
	loads := 0
	load := func() ([]string, error) {
		loads++
		return []string{"UCLA"}, nil
	}

	first, err := cached(context.Background(), cache, "suggest:school:ucl", load)
	require.NoError(t, err)
	second, err := cached(context.Background(), cache, "suggest:school:ucl", load)
	require.NoError(t, err)

	assert.Equal(t, []string{"UCLA"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)
}

func TestCachedDisabledAlwaysLoads(t *testing.T) {
	store := &memoryCache{}
	cache := NewCacheService(store, nil, 0, nil, false)
	loads := 0
	load := func() ([]string, error) {
		loads++
		return []string{"UCLA"}, nil
	}

	_, _ = cached(context.Background(), cache, "k", load)
	_, _ = cached(context.Background(), cache, "k", load)

	assert.Equal(t, 2, loads)
	assert.Empty(t, store.values)
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	store := &memoryCache{}
	cache := NewCacheService(store, nil, 0, nil, true)

	_, err := cached(context.Background(), cache, "k", func() ([]string, error) {
		return nil, errors.New("boom")
	})

	require.Error(t, err)
	assert.Empty(t, store.values)
}

func TestInvalidatePatterns(t *testing.T) {
	store := &memoryCache{}
	cache := NewCacheService(store, nil, 0, nil, true)

	cache.Invalidate(context.Background(), "related:*", "suggest:*")

	assert.Equal(t, []string{"related:*", "suggest:*"}, store.deleted)
}

func TestNilCacheServiceIsDisabled(t *testing.T) {
	var cache *CacheService
	assert.False(t, cache.Enabled())
	assert.False(t, cache.Get(context.Background(), "k", new(string)))
}
