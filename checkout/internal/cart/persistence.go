package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

const (
	cartKeyPrefix     = "cartItems"
	wishlistKeyPrefix = "wishlistItems"
)

func CartKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", cartKeyPrefix, sessionID)
}

func WishlistKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", wishlistKeyPrefix, sessionID)
}

// Persistence loads and saves a whole collection at once. Load never fails:
// a missing or unreadable value is an empty collection.
type Persistence[T any] interface {
	Load(c context.Context) []T
	Save(c context.Context, items []T) error
}

// Collection stores a JSON array under a single key.
type Collection[T any] struct {
	kv  KeyValue
	key string
}

func NewCollection[T any](kv KeyValue, key string) *Collection[T] {
	return &Collection[T]{kv: kv, key: key}
}

func (col *Collection[T]) Load(c context.Context) []T {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Collection Load").
		Str(log.KeyCacheKey, col.key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting collection").Logger()
	logger.Trace().Msg("getting collection")
	raw, err := col.kv.Get(c, col.key)
	if errors.Is(err, ErrKeyNotFound) {
		logger.Trace().Msg("collection not found, starting empty")
		return []T{}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed getting collection, starting empty")
		return []T{}
	}
	logger.Trace().Msg("got collection")

	logger = logger.With().Str(log.KeyProcess, "unmarshaling collection").Logger()
	items := []T{}
	err = json.Unmarshal([]byte(raw), &items)
	if err != nil || items == nil {
		logger.Warn().Err(err).Msg("malformed collection, starting empty")
		return []T{}
	}
	logger.Trace().Msg("unmarshaled collection")

	return items
}

func (col *Collection[T]) Save(c context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed marshaling collection with error=%w", err)
	}
	err = col.kv.Set(c, col.key, string(raw))
	if err != nil {
		return fmt.Errorf("failed saving collection with error=%w", err)
	}
	return nil
}
