package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/checkout/internal/cart"
	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/form"
	"github.com/Alturino/storefront/checkout/internal/order"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/internal/log"
)

type Step string

const (
	StepCart      Step = "cart"
	StepShipping  Step = "shipping"
	StepPayment   Step = "payment"
	StepConfirmed Step = "confirmed"
)

type Cart interface {
	List() []cart.LineItem
	Len() int
	RemoveOrdered(c context.Context, ordered []cart.LineItem) []cart.LineItem
}

type PriceFunc func(items []cart.LineItem) pricing.Snapshot

type State struct {
	CurrentStep     Step                  `json:"currentStep"`
	ShippingAddress *form.ShippingAddress `json:"shippingAddress,omitempty"`
	PaymentMethod   string                `json:"paymentMethod,omitempty"`
	Receipt         *order.Receipt        `json:"receipt,omitempty"`
	Submitting      bool                  `json:"submitting"`
	Generation      uint64                `json:"generation"`
}

// Flow walks one shopper from cart to confirmation. The lock is released
// while the submitter runs; Back cancels that submission and bumps the
// generation so its late result is dropped.
type Flow struct {
	mu         sync.Mutex
	sessionID  string
	step       Step
	address    *form.ShippingAddress
	method     string
	receipt    *order.Receipt
	cart       Cart
	submitter  order.Submitter
	generation uint64
	inFlight   bool
	cancel     context.CancelFunc
	newID      func() uuid.UUID
	now        func() time.Time
}

func New(sessionID string, cart Cart, submitter order.Submitter) *Flow {
	return &Flow{
		sessionID: sessionID,
		step:      StepCart,
		cart:      cart,
		submitter: submitter,
		newID:     uuid.New,
		now:       time.Now,
	}
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := State{
		CurrentStep:   f.step,
		PaymentMethod: f.method,
		Submitting:    f.inFlight,
		Generation:    f.generation,
	}
	if f.address != nil {
		addr := *f.address
		state.ShippingAddress = &addr
	}
	if f.receipt != nil {
		receipt := *f.receipt
		state.Receipt = &receipt
	}
	return state
}

func (f *Flow) ToShipping(c context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepCart {
		return f.invalidTransition(StepShipping)
	}
	if f.cart.Len() == 0 {
		return checkoutErrors.ErrEmptyCart
	}
	f.step = StepShipping
	f.logTransition(c, StepCart)
	return nil
}

func (f *Flow) SubmitShipping(c context.Context, addr form.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepShipping {
		return f.invalidTransition(StepPayment)
	}
	if fields := form.ValidateShipping(addr); len(fields) > 0 {
		return checkoutErrors.NewValidationError(fields)
	}
	normalized := form.NormalizeShipping(addr)
	f.address = &normalized
	f.step = StepPayment
	f.logTransition(c, StepShipping)
	return nil
}

// PlaceOrder submits the current cart. The ordered lines leave the cart and
// the flow is confirmed only when the submitter succeeds and the flow was not
// moved back in the meantime.
func (f *Flow) PlaceOrder(
	c context.Context,
	instrument form.PaymentInstrument,
	priceFn PriceFunc,
) (order.Receipt, order.Payload, error) {
	f.mu.Lock()
	if f.step != StepPayment {
		f.mu.Unlock()
		return order.Receipt{}, order.Payload{}, f.invalidTransition(StepConfirmed)
	}
	if f.inFlight {
		f.mu.Unlock()
		return order.Receipt{}, order.Payload{}, checkoutErrors.ErrSubmissionInFlight
	}
	if fields := form.ValidatePayment(instrument); len(fields) > 0 {
		f.mu.Unlock()
		return order.Receipt{}, order.Payload{}, checkoutErrors.NewValidationError(fields)
	}
	items := f.cart.List()
	if len(items) == 0 {
		f.mu.Unlock()
		return order.Receipt{}, order.Payload{}, checkoutErrors.ErrEmptyCart
	}

	payload := order.Payload{
		ID:              f.newID(),
		SessionID:       f.sessionID,
		LineItems:       items,
		ShippingAddress: *f.address,
		Payment:         instrument.Summary(),
		Pricing:         priceFn(items),
		CreatedAt:       f.now().UTC(),
	}
	submitCtx, cancel := context.WithCancel(c)
	generation := f.generation
	f.inFlight = true
	f.cancel = cancel
	f.method = instrument.Method
	f.mu.Unlock()

	receipt, err := f.submitter.Submit(submitCtx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	cancel()

	if f.generation != generation {
		return order.Receipt{}, payload, fmt.Errorf(
			"order id=%s completed after leaving payment with error=%w",
			payload.ID,
			checkoutErrors.ErrSubmissionAbandoned,
		)
	}
	f.inFlight = false
	f.cancel = nil

	if err != nil {
		return order.Receipt{}, payload, fmt.Errorf(
			"failed submitting order id=%s with error=%w",
			payload.ID,
			errors.Join(checkoutErrors.ErrOrderSubmission, err),
		)
	}

	f.cart.RemoveOrdered(c, payload.LineItems)
	f.receipt = &receipt
	f.step = StepConfirmed
	f.logTransition(c, StepPayment)
	return receipt, payload, nil
}

// Back is always allowed from shipping and payment and never validates.
func (f *Flow) Back(c context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := f.step
	switch f.step {
	case StepPayment:
		f.step = StepShipping
	case StepShipping:
		f.step = StepCart
	default:
		return f.invalidTransition("back")
	}

	if f.inFlight {
		f.cancel()
		f.cancel = nil
		f.inFlight = false
	}
	f.generation++
	f.logTransition(c, from)
	return nil
}

func (f *Flow) invalidTransition(to Step) error {
	return fmt.Errorf("from=%s to=%s with error=%w", f.step, to, checkoutErrors.ErrInvalidTransition)
}

func (f *Flow) logTransition(c context.Context, from Step) {
	logger := zerolog.Ctx(c)
	logger.Info().
		Str(log.KeySessionID, f.sessionID).
		Str("from", string(from)).
		Str(log.KeyCheckoutStep, string(f.step)).
		Uint64(log.KeyGeneration, f.generation).
		Msg("checkout step changed")
}
