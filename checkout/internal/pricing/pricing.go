package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/checkout/internal/cart"
	"github.com/Alturino/storefront/checkout/internal/promo"
)

var DefaultGiftWrapFee = decimal.RequireFromString("9.90")

// Snapshot is derived from the cart and the shopper's selections on every
// read. It is never stored on its own.
type Snapshot struct {
	ItemCount        int             `json:"itemCount"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	OriginalShipping decimal.Decimal `json:"originalShipping"`
	ShippingCost     decimal.Decimal `json:"shippingCost"`
	GiftWrapFee      decimal.Decimal `json:"giftWrapFee"`
	Total            decimal.Decimal `json:"total"`
	PromoCode        string          `json:"promoCode,omitempty"`
	PromoKind        promo.Kind      `json:"promoKind,omitempty"`
	DeliveryOption   DeliveryID      `json:"deliveryOption"`
	GiftWrap         bool            `json:"giftWrap"`
}

type Engine struct {
	GiftWrapFee decimal.Decimal
}

func NewEngine(giftWrapFee decimal.Decimal) Engine {
	return Engine{GiftWrapFee: giftWrapFee.Round(2)}
}

func (e Engine) Compute(
	items []cart.LineItem,
	delivery DeliveryOption,
	rule *promo.Rule,
	giftWrap bool,
) Snapshot {
	snapshot := Snapshot{
		Subtotal:       decimal.Zero,
		Discount:       decimal.Zero,
		GiftWrapFee:    decimal.Zero,
		DeliveryOption: delivery.ID,
		GiftWrap:       giftWrap,
	}

	for _, item := range items {
		snapshot.ItemCount += item.Quantity
		snapshot.Subtotal = snapshot.Subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	snapshot.Subtotal = snapshot.Subtotal.Round(2)

	snapshot.OriginalShipping = decimal.Max(delivery.FlatCost, decimal.Zero).Round(2)
	snapshot.ShippingCost = snapshot.OriginalShipping

	percentDiscount := decimal.Zero
	if rule != nil {
		snapshot.PromoCode = rule.Code
		snapshot.PromoKind = rule.Kind
		switch rule.Kind {
		case promo.KindPercentOfSubtotal:
			percentDiscount = decimal.Min(snapshot.Subtotal.Mul(rule.Value).Round(2), snapshot.Subtotal)
			snapshot.Discount = percentDiscount
		case promo.KindWaiveShipping:
			snapshot.Discount = snapshot.OriginalShipping
			snapshot.ShippingCost = decimal.Max(snapshot.OriginalShipping.Sub(snapshot.Discount), decimal.Zero)
		}
	}

	if giftWrap {
		snapshot.GiftWrapFee = e.GiftWrapFee
	}

	total := snapshot.Subtotal.
		Sub(percentDiscount).
		Add(snapshot.ShippingCost).
		Add(snapshot.GiftWrapFee)
	snapshot.Total = decimal.Max(total, decimal.Zero).Round(2)

	return snapshot
}
