package cart

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV(t *testing.T) {
	c := context.Background()
	_, kv := newMiniredisKV(t)

	_, err := kv.Get(c, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(c, "key", "value"))
	value, err := kv.Get(c, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestStorePersistsToRedis(t *testing.T) {
	c := context.Background()
	mr, kv := newMiniredisKV(t)

	store := NewStore(c, NewCollection[LineItem](kv, CartKey("session-1")))
	_, err := store.AddItem(c, "p1", "50ml", decimal.RequireFromString("100.00"), 2)
	require.NoError(t, err)

	raw, err := mr.Get("cartItems:session-1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"p1","variantLabel":"50ml","unitPrice":"100","quantity":2}]`, raw)

	reloaded := NewStore(c, NewCollection[LineItem](kv, CartKey("session-1")))
	assertItems(t, store.List(), reloaded.List())

	other := NewStore(c, NewCollection[LineItem](kv, CartKey("session-2")))
	assert.Equal(t, 0, other.Len())
}

func TestStoreRedisMalformedValue(t *testing.T) {
	c := context.Background()
	mr, kv := newMiniredisKV(t)
	require.NoError(t, mr.Set("cartItems:session-1", "garbage"))

	store := NewStore(c, NewCollection[LineItem](kv, CartKey("session-1")))
	assert.Equal(t, 0, store.Len())
}

func TestStoreRedisUnavailable(t *testing.T) {
	c := context.Background()
	mr, kv := newMiniredisKV(t)
	mr.Close()

	store := NewStore(c, NewCollection[LineItem](kv, CartKey("session-1")))
	items, err := store.AddItem(c, "p1", "", decimal.RequireFromString("10"), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
