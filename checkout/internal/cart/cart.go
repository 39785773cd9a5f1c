package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/internal/log"
)

type LineItem struct {
	ProductID    string          `json:"productId"`
	VariantLabel string          `json:"variantLabel,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
}

func (item LineItem) matches(productID string, variant string) bool {
	return item.ProductID == productID && item.VariantLabel == variant
}

func (item LineItem) valid() bool {
	return item.ProductID != "" && item.Quantity >= 1 && !item.UnitPrice.IsNegative()
}

// Store is the line-item collection of one shopper. Each (productId,
// variantLabel) pair appears at most once and keeps insertion order.
type Store struct {
	mu          sync.Mutex
	items       []LineItem
	persistence Persistence[LineItem]
}

func NewStore(c context.Context, persistence Persistence[LineItem]) *Store {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "NewStore").Logger()

	loaded := persistence.Load(c)
	store := &Store{items: make([]LineItem, 0, len(loaded)), persistence: persistence}
	for _, item := range loaded {
		if !item.valid() {
			logger.Warn().Any(log.KeyCartItems, item).Msg("dropping invalid persisted line item")
			continue
		}
		if i := store.indexOf(item.ProductID, item.VariantLabel); i >= 0 {
			logger.Warn().Any(log.KeyCartItems, item).Msg("merging duplicate persisted line item")
			store.items[i].Quantity += item.Quantity
			continue
		}
		store.items = append(store.items, item)
	}
	return store
}

func (s *Store) AddItem(
	c context.Context,
	productID string,
	variant string,
	unitPrice decimal.Decimal,
	quantity int,
) ([]LineItem, error) {
	if quantity < 1 {
		return nil, checkoutErrors.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, checkoutErrors.ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID, variant); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, LineItem{
			ProductID:    productID,
			VariantLabel: variant,
			UnitPrice:    unitPrice.Round(2),
			Quantity:     quantity,
		})
	}
	s.save(c)
	return s.snapshot(), nil
}

func (s *Store) UpdateQuantity(
	c context.Context,
	productID string,
	variant string,
	quantity int,
) ([]LineItem, error) {
	if quantity < 1 {
		return nil, checkoutErrors.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID, variant)
	if i < 0 {
		return nil, fmt.Errorf("failed updating productId=%s variant=%s with error=%w", productID, variant, checkoutErrors.ErrItemNotFound)
	}
	s.items[i].Quantity = quantity
	s.save(c)
	return s.snapshot(), nil
}

// RemoveItem is a no-op for pairs that are not in the cart.
func (s *Store) RemoveItem(c context.Context, productID string, variant string) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID, variant)
	if i < 0 {
		return s.snapshot()
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.save(c)
	return s.snapshot()
}

// RemoveOrdered takes the ordered quantities out of the cart. Lines added or
// increased after the order was built stay in the cart.
func (s *Store) RemoveOrdered(c context.Context, ordered []LineItem) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range ordered {
		i := s.indexOf(item.ProductID, item.VariantLabel)
		if i < 0 {
			continue
		}
		s.items[i].Quantity -= item.Quantity
		if s.items[i].Quantity < 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
	}
	s.save(c)
	return s.snapshot()
}

func (s *Store) Clear(c context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []LineItem{}
	s.save(c)
}

func (s *Store) List() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len is the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(productID string, variant string) int {
	for i, item := range s.items {
		if item.matches(productID, variant) {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// save is best effort: the in-memory mutation stands when persistence fails.
func (s *Store) save(c context.Context) {
	err := s.persistence.Save(c, s.snapshot())
	if err != nil {
		logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Store save").Logger()
		logger.Warn().Err(err).Msg("failed persisting cart items")
	}
}
