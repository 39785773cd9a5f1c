package service

import (
	"context"
	"sync"

	"github.com/Alturino/storefront/checkout/internal/cart"
	"github.com/Alturino/storefront/checkout/internal/flow"
	"github.com/Alturino/storefront/checkout/internal/order"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/promo"
)

// session is the checkout state of one shopper. mu guards the selections and
// the flow pointer; cart, wishlist and flow carry their own locks.
type session struct {
	mu       sync.Mutex
	id       string
	cart     *cart.Store
	wishlist *cart.Wishlist
	flow     *flow.Flow
	delivery pricing.DeliveryOption
	promo    *promo.Rule
	giftWrap bool
}

type selections struct {
	delivery pricing.DeliveryOption
	promo    *promo.Rule
	giftWrap bool
}

func (s *session) selections() selections {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := selections{delivery: s.delivery, giftWrap: s.giftWrap}
	if s.promo != nil {
		rule := *s.promo
		sel.promo = &rule
	}
	return sel
}

func (s *session) currentFlow() *flow.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

type registry struct {
	mu        sync.Mutex
	sessions  map[string]*session
	kv        cart.KeyValue
	submitter order.Submitter
	catalog   *pricing.Catalog
}

func newRegistry(kv cart.KeyValue, submitter order.Submitter, catalog *pricing.Catalog) *registry {
	return &registry{
		sessions:  map[string]*session{},
		kv:        kv,
		submitter: submitter,
		catalog:   catalog,
	}
}

// get returns the session for id, loading its cart and wishlist from the KV
// store the first time it is seen.
func (r *registry) get(c context.Context, id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	store := cart.NewStore(c, cart.NewCollection[cart.LineItem](r.kv, cart.CartKey(id)))
	s := &session{
		id:       id,
		cart:     store,
		wishlist: cart.NewWishlist(c, cart.NewCollection[cart.ProductSummary](r.kv, cart.WishlistKey(id))),
		flow:     flow.New(id, store, r.submitter),
		delivery: r.catalog.Default(),
	}
	r.sessions[id] = s
	return s
}
