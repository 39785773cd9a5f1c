package request

import (
	"github.com/shopspring/decimal"
)

type AddItem struct {
	ProductID string          `validate:"required"     json:"productId"`
	Variant   string          `                        json:"variant"`
	UnitPrice decimal.Decimal `validate:"price"        json:"unitPrice"`
	Quantity  *int            `                        json:"quantity"`
}

// QuantityOrDefault is 1 when the client left quantity out.
func (r AddItem) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type UpdateQuantity struct {
	Quantity int `json:"quantity"`
}

type ApplyPromo struct {
	Code string `validate:"required" json:"code"`
}

type SelectDelivery struct {
	DeliveryOption string `validate:"required" json:"deliveryOption"`
}

type SetGiftWrap struct {
	GiftWrap bool `json:"giftWrap"`
}

type ToggleWishlist struct {
	ID    string          `validate:"required" json:"id"`
	Name  string          `validate:"required" json:"name"`
	Brand string          `                    json:"brand"`
	Price decimal.Decimal `validate:"price"    json:"price"`
	Image string          `                    json:"image"`
}
