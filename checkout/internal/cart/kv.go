package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyValue is the string store carts and wishlists persist into.
type KeyValue interface {
	Get(c context.Context, key string) (string, error)
	Set(c context.Context, key string, value string) error
}

type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (kv *RedisKV) Get(c context.Context, key string) (string, error) {
	value, err := kv.client.Get(c, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed getting key=%s with error=%w", key, err)
	}
	return value, nil
}

func (kv *RedisKV) Set(c context.Context, key string, value string) error {
	err := kv.client.Set(c, key, value, 0).Err()
	if err != nil {
		return fmt.Errorf("failed setting key=%s with error=%w", key, err)
	}
	return nil
}

type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (kv *MemoryKV) Get(_ context.Context, key string) (string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	value, ok := kv.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (kv *MemoryKV) Set(_ context.Context, key string, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}
