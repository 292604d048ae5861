package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLockStore_AcquireRelease(t *testing.T) {
	store := NewInMemoryLockStore()
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Acquire(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held key cannot be taken twice")

	ok, err = store.Acquire(ctx, "order-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, store.Release(ctx, "order-1"))
	ok, err = store.Acquire(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryLockStore_Expiry(t *testing.T) {
	store := NewInMemoryLockStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := store.Acquire(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, err := store.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired holder is replaced")
}

func TestInMemoryLockStore_SingleWinner(t *testing.T) {
	store := NewInMemoryLockStore()
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Acquire(ctx, "same", time.Minute); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRedisLockStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisLockStoreWithClient(client, "test:")
	defer store.Close()

	_, err := store.Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.Error(t, store.Release(context.Background(), "k"))
}
