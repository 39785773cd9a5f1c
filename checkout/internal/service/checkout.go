package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/checkout/internal/address"
	"github.com/Alturino/storefront/checkout/internal/cart"
	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/flow"
	"github.com/Alturino/storefront/checkout/internal/form"
	"github.com/Alturino/storefront/checkout/internal/order"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/promo"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
)

type OrderFinder interface {
	FindOrderByID(c context.Context, id uuid.UUID) (order.Order, error)
}

type Summary struct {
	Items    []cart.LineItem        `json:"items"`
	Pricing  pricing.Snapshot       `json:"pricing"`
	Delivery pricing.DeliveryOption `json:"delivery"`
	Promo    *promo.Rule            `json:"promo,omitempty"`
	Checkout flow.State             `json:"checkout"`
}

type Confirmation struct {
	Receipt  order.Receipt    `json:"receipt"`
	Pricing  pricing.Snapshot `json:"pricing"`
	Redirect string           `json:"redirect"`
}

type CheckoutService struct {
	sessions        *registry
	promos          promo.Resolver
	catalog         *pricing.Catalog
	engine          pricing.Engine
	lookup          address.Lookup
	orders          OrderFinder
	successRedirect string
	metrics         *Metrics
}

func NewCheckoutService(
	kv cart.KeyValue,
	submitter order.Submitter,
	promos promo.Resolver,
	catalog *pricing.Catalog,
	engine pricing.Engine,
	lookup address.Lookup,
	orders OrderFinder,
	successRedirect string,
	metrics *Metrics,
) *CheckoutService {
	return &CheckoutService{
		sessions:        newRegistry(kv, submitter, catalog),
		promos:          promos,
		catalog:         catalog,
		engine:          engine,
		lookup:          lookup,
		orders:          orders,
		successRedirect: successRedirect,
		metrics:         metrics,
	}
}

func (svc *CheckoutService) ListCart(c context.Context, sessionID string) []cart.LineItem {
	return svc.sessions.get(c, sessionID).cart.List()
}

func (svc *CheckoutService) AddItem(
	c context.Context,
	sessionID string,
	productID string,
	variant string,
	unitPrice decimal.Decimal,
	quantity int,
) ([]cart.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService AddItem").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProductID, productID).
		Str(log.KeyVariant, variant).
		Int(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	items, err := svc.sessions.get(c, sessionID).cart.AddItem(c, productID, variant, unitPrice, quantity)
	if err != nil {
		err = fmt.Errorf("failed adding productId=%s to cart with error=%w", productID, err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyCartItemsCount, len(items)).Msg("added item to cart")

	return items, nil
}

func (svc *CheckoutService) UpdateQuantity(
	c context.Context,
	sessionID string,
	productID string,
	variant string,
	quantity int,
) ([]cart.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService UpdateQuantity").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProductID, productID).
		Str(log.KeyVariant, variant).
		Int(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "updating item quantity").Logger()
	logger.Info().Msg("updating item quantity")
	c = logger.WithContext(c)
	items, err := svc.sessions.get(c, sessionID).cart.UpdateQuantity(c, productID, variant, quantity)
	if err != nil {
		err = fmt.Errorf("failed updating quantity of productId=%s with error=%w", productID, err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("updated item quantity")

	return items, nil
}

func (svc *CheckoutService) RemoveItem(
	c context.Context,
	sessionID string,
	productID string,
	variant string,
) []cart.LineItem {
	c, span := otel.Tracer.Start(c, "CheckoutService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService RemoveItem").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProductID, productID).
		Str(log.KeyVariant, variant).
		Str(log.KeyProcess, "removing item from cart").
		Logger()

	logger.Info().Msg("removing item from cart")
	c = logger.WithContext(c)
	items := svc.sessions.get(c, sessionID).cart.RemoveItem(c, productID, variant)
	logger.Info().Msg("removed item from cart")

	return items
}

func (svc *CheckoutService) Summary(c context.Context, sessionID string) Summary {
	s := svc.sessions.get(c, sessionID)
	return svc.summarize(s)
}

func (svc *CheckoutService) summarize(s *session) Summary {
	sel := s.selections()
	items := s.cart.List()
	return Summary{
		Items:    items,
		Pricing:  svc.engine.Compute(items, sel.delivery, sel.promo, sel.giftWrap),
		Delivery: sel.delivery,
		Promo:    sel.promo,
		Checkout: s.currentFlow().State(),
	}
}

// ApplyPromo replaces the active promo with the rule for code. An unknown code
// leaves the previous promo in place.
func (svc *CheckoutService) ApplyPromo(c context.Context, sessionID string, code string) (Summary, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService ApplyPromo")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService ApplyPromo").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyPromoCode, code).
		Logger()

	s := svc.sessions.get(c, sessionID)

	logger = logger.With().Str(log.KeyProcess, "resolving promo code").Logger()
	logger.Info().Msg("resolving promo code")
	rule, err := svc.promos.Resolve(c, code)
	if err != nil {
		svc.metrics.PromoRejections.Inc()
		err = fmt.Errorf("failed resolving promo code=%s with error=%w", code, err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return svc.summarize(s), err
	}
	logger.Info().Msg("resolved promo code")

	s.mu.Lock()
	s.promo = &rule
	s.mu.Unlock()

	return svc.summarize(s), nil
}

func (svc *CheckoutService) RemovePromo(c context.Context, sessionID string) Summary {
	s := svc.sessions.get(c, sessionID)

	s.mu.Lock()
	s.promo = nil
	s.mu.Unlock()

	zerolog.Ctx(c).Info().
		Str(log.KeyTag, "CheckoutService RemovePromo").
		Str(log.KeySessionID, sessionID).
		Msg("removed promo")
	return svc.summarize(s)
}

func (svc *CheckoutService) DeliveryOptions() []pricing.DeliveryOption {
	return svc.catalog.Options()
}

func (svc *CheckoutService) SelectDelivery(
	c context.Context,
	sessionID string,
	id pricing.DeliveryID,
) (Summary, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SelectDelivery")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SelectDelivery").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyDeliveryOption, string(id)).
		Logger()

	s := svc.sessions.get(c, sessionID)

	logger = logger.With().Str(log.KeyProcess, "selecting delivery option").Logger()
	logger.Info().Msg("selecting delivery option")
	option, err := svc.catalog.Lookup(id)
	if err != nil {
		err = fmt.Errorf("failed selecting delivery option with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return svc.summarize(s), err
	}
	s.mu.Lock()
	s.delivery = option
	s.mu.Unlock()
	logger.Info().Msg("selected delivery option")

	return svc.summarize(s), nil
}

func (svc *CheckoutService) SetGiftWrap(c context.Context, sessionID string, giftWrap bool) Summary {
	s := svc.sessions.get(c, sessionID)

	s.mu.Lock()
	s.giftWrap = giftWrap
	s.mu.Unlock()

	zerolog.Ctx(c).Info().
		Str(log.KeyTag, "CheckoutService SetGiftWrap").
		Str(log.KeySessionID, sessionID).
		Bool(log.KeyGiftWrap, giftWrap).
		Msg("set gift wrap")
	return svc.summarize(s)
}

func (svc *CheckoutService) ToShipping(c context.Context, sessionID string) (flow.State, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService ToShipping")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService ToShipping").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProcess, "moving to shipping").
		Logger()

	logger.Info().Msg("moving to shipping")
	c = logger.WithContext(c)
	f := svc.sessions.get(c, sessionID).currentFlow()
	if err := f.ToShipping(c); err != nil {
		err = fmt.Errorf("failed moving to shipping with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return f.State(), err
	}
	logger.Info().Msg("moved to shipping")

	return f.State(), nil
}

func (svc *CheckoutService) SubmitShipping(
	c context.Context,
	sessionID string,
	addr form.ShippingAddress,
) (flow.State, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitShipping")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SubmitShipping").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProcess, "submitting shipping address").
		Logger()

	logger.Info().Msg("submitting shipping address")
	c = logger.WithContext(c)
	f := svc.sessions.get(c, sessionID).currentFlow()
	if err := f.SubmitShipping(c, addr); err != nil {
		err = fmt.Errorf("failed submitting shipping address with error=%w", err)
		commonErrors.HandleError(err, span)
		if validationErr, ok := checkoutErrors.AsValidationError(err); ok {
			logger = logger.With().Any(log.KeyFieldErrors, validationErr.Fields).Logger()
		}
		logger.Error().Err(err).Msg(err.Error())
		return f.State(), err
	}
	logger.Info().Msg("submitted shipping address")

	return f.State(), nil
}

// PlaceOrder prices the cart with the session's current selections and hands
// it to the order submitter.
func (svc *CheckoutService) PlaceOrder(
	c context.Context,
	sessionID string,
	instrument form.PaymentInstrument,
) (Confirmation, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService PlaceOrder").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyPaymentMethod, instrument.Method).
		Logger()

	s := svc.sessions.get(c, sessionID)
	// captured up front: the flow holds its lock while pricing, and the
	// session lock is never taken inside it.
	sel := s.selections()
	priceFn := func(items []cart.LineItem) pricing.Snapshot {
		return svc.engine.Compute(items, sel.delivery, sel.promo, sel.giftWrap)
	}

	logger = logger.With().Str(log.KeyProcess, "placing order").Logger()
	logger.Info().Msg("placing order")
	c = logger.WithContext(c)
	receipt, payload, err := s.currentFlow().PlaceOrder(c, instrument, priceFn)
	if err != nil {
		if errors.Is(err, checkoutErrors.ErrOrderSubmission) ||
			errors.Is(err, checkoutErrors.ErrSubmissionAbandoned) {
			svc.metrics.OrdersFailed.Inc()
		}
		err = fmt.Errorf("failed placing order with error=%w", err)
		commonErrors.HandleError(err, span)
		if validationErr, ok := checkoutErrors.AsValidationError(err); ok {
			logger = logger.With().Any(log.KeyFieldErrors, validationErr.Fields).Logger()
		}
		logger.Error().Err(err).Msg(err.Error())
		return Confirmation{}, err
	}
	svc.metrics.OrdersPlaced.Inc()
	logger.Info().
		Str(log.KeyOrderID, receipt.OrderID.String()).
		Str(log.KeyPricing, payload.Pricing.Total.StringFixed(2)).
		Msg("placed order")

	return Confirmation{Receipt: receipt, Pricing: payload.Pricing, Redirect: svc.successRedirect}, nil
}

func (svc *CheckoutService) Back(c context.Context, sessionID string) (flow.State, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Back")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Back").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProcess, "moving back").
		Logger()

	logger.Info().Msg("moving back")
	c = logger.WithContext(c)
	f := svc.sessions.get(c, sessionID).currentFlow()
	if err := f.Back(c); err != nil {
		err = fmt.Errorf("failed moving back with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return f.State(), err
	}
	logger.Info().Msg("moved back")

	return f.State(), nil
}

// StartNewCheckout replaces the session's flow with a fresh one at the cart
// step and resets the promo, delivery and gift-wrap selections. The cart and
// wishlist are kept.
func (svc *CheckoutService) StartNewCheckout(c context.Context, sessionID string) (Summary, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService StartNewCheckout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService StartNewCheckout").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProcess, "starting new checkout").
		Logger()

	logger.Info().Msg("starting new checkout")
	s := svc.sessions.get(c, sessionID)
	s.mu.Lock()
	if s.flow.State().Submitting {
		s.mu.Unlock()
		err := fmt.Errorf("failed starting new checkout with error=%w", checkoutErrors.ErrSubmissionInFlight)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return svc.summarize(s), err
	}
	s.flow = flow.New(sessionID, s.cart, svc.sessions.submitter)
	s.delivery = svc.catalog.Default()
	s.promo = nil
	s.giftWrap = false
	s.mu.Unlock()
	logger.Info().Msg("started new checkout")

	return svc.summarize(s), nil
}

func (svc *CheckoutService) Wishlist(c context.Context, sessionID string) []cart.ProductSummary {
	return svc.sessions.get(c, sessionID).wishlist.List()
}

func (svc *CheckoutService) ToggleWishlist(
	c context.Context,
	sessionID string,
	product cart.ProductSummary,
) (bool, []cart.ProductSummary) {
	c, span := otel.Tracer.Start(c, "CheckoutService ToggleWishlist")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService ToggleWishlist").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyProductID, product.ID).
		Logger()
	c = logger.WithContext(c)

	wishlist := svc.sessions.get(c, sessionID).wishlist
	added := wishlist.Toggle(c, product)
	logger.Info().Bool("added", added).Msg("toggled wishlist item")

	return added, wishlist.List()
}

func (svc *CheckoutService) LookupPostalCode(c context.Context, postalCode string) (address.Address, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService LookupPostalCode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService LookupPostalCode").
		Str(log.KeyPostalCode, postalCode).
		Str(log.KeyProcess, "looking up postal code").
		Logger()

	logger.Info().Msg("looking up postal code")
	c = logger.WithContext(c)
	addr, err := svc.lookup.Lookup(c, postalCode)
	if err != nil {
		err = fmt.Errorf("failed looking up postal code with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return address.Address{}, err
	}
	logger.Info().Msg("looked up postal code")

	return addr, nil
}

// FindOrder only returns orders placed by sessionID.
func (svc *CheckoutService) FindOrder(c context.Context, sessionID string, id uuid.UUID) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService FindOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService FindOrder").
		Str(log.KeySessionID, sessionID).
		Str(log.KeyOrderID, id.String()).
		Str(log.KeyProcess, "finding order").
		Logger()

	logger.Info().Msg("finding order")
	if svc.orders == nil {
		err := fmt.Errorf("orderId=%s with error=%w", id, checkoutErrors.ErrOrderNotFound)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	c = logger.WithContext(c)
	found, err := svc.orders.FindOrderByID(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	if found.SessionID != sessionID {
		err = fmt.Errorf("orderId=%s with error=%w", id, checkoutErrors.ErrOrderNotFound)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	logger.Info().Msg("found order")

	return found, nil
}
