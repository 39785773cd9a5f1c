package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistToggle(t *testing.T) {
	c := context.Background()
	kv := NewMemoryKV()
	wishlist := NewWishlist(c, NewCollection[ProductSummary](kv, WishlistKey("session-1")))
	addedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	wishlist.now = func() time.Time { return addedAt }

	product := ProductSummary{
		ID:    "p1",
		Name:  "Eau de Parfum",
		Brand: "Maison",
		Price: decimal.RequireFromString("459.90"),
		Image: "/img/p1.jpg",
	}

	assert.True(t, wishlist.Toggle(c, product))
	assert.True(t, wishlist.Contains("p1"))
	items := wishlist.List()
	require.Len(t, items, 1)
	assert.Equal(t, addedAt, items[0].AddedAt)

	reloaded := NewWishlist(c, NewCollection[ProductSummary](kv, WishlistKey("session-1")))
	assert.True(t, reloaded.Contains("p1"))

	assert.False(t, wishlist.Toggle(c, product))
	assert.False(t, wishlist.Contains("p1"))
	assert.Empty(t, wishlist.List())
}
