package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/checkout/internal/cart"
	"github.com/Alturino/storefront/checkout/internal/form"
	"github.com/Alturino/storefront/checkout/internal/pricing"
)

type Status string

const StatusPlaced Status = "placed"

// Payload is what leaves the checkout when the shopper confirms. Payment only
// carries the masked summary.
type Payload struct {
	ID              uuid.UUID            `json:"id"`
	SessionID       string               `json:"sessionId"`
	LineItems       []cart.LineItem      `json:"lineItems"`
	ShippingAddress form.ShippingAddress `json:"shippingAddress"`
	Payment         form.PaymentSummary  `json:"payment"`
	Pricing         pricing.Snapshot     `json:"pricing"`
	CreatedAt       time.Time            `json:"createdAt"`
}

type Receipt struct {
	OrderID  uuid.UUID `json:"orderId"`
	Status   Status    `json:"status"`
	PlacedAt time.Time `json:"placedAt"`
}

type Order struct {
	Payload
	Status   Status    `json:"status"`
	PlacedAt time.Time `json:"placedAt"`
}

func (o Order) Receipt() Receipt {
	return Receipt{OrderID: o.ID, Status: o.Status, PlacedAt: o.PlacedAt}
}

type Submitter interface {
	Submit(c context.Context, payload Payload) (Receipt, error)
}

// Store persists a single order atomically.
type Store interface {
	InsertOrder(c context.Context, payload Payload) (Receipt, error)
}
