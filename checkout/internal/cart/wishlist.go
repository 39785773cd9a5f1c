package cart

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/log"
)

type ProductSummary struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Brand   string          `json:"brand"`
	Price   decimal.Decimal `json:"price"`
	Image   string          `json:"image"`
	AddedAt time.Time       `json:"addedAt"`
}

type Wishlist struct {
	mu          sync.Mutex
	items       []ProductSummary
	persistence Persistence[ProductSummary]
	now         func() time.Time
}

func NewWishlist(c context.Context, persistence Persistence[ProductSummary]) *Wishlist {
	return &Wishlist{
		items:       persistence.Load(c),
		persistence: persistence,
		now:         time.Now,
	}
}

// Toggle adds the product when absent and removes it when present. It reports
// whether the product is on the wishlist afterwards.
func (w *Wishlist) Toggle(c context.Context, product ProductSummary) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	added := true
	if i := w.indexOf(product.ID); i >= 0 {
		w.items = append(w.items[:i], w.items[i+1:]...)
		added = false
	} else {
		product.AddedAt = w.now().UTC()
		w.items = append(w.items, product)
	}

	err := w.persistence.Save(c, w.snapshot())
	if err != nil {
		logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Wishlist Toggle").Logger()
		logger.Warn().Err(err).Msg("failed persisting wishlist items")
	}
	return added
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.indexOf(productID) >= 0
}

func (w *Wishlist) List() []ProductSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wishlist) indexOf(productID string) int {
	for i, item := range w.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (w *Wishlist) snapshot() []ProductSummary {
	out := make([]ProductSummary, len(w.items))
	copy(out, w.items)
	return out
}
