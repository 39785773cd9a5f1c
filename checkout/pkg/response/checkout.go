package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/checkout/internal/cart"
	"github.com/Alturino/storefront/checkout/internal/order"
	"github.com/Alturino/storefront/checkout/internal/service"
	"github.com/Alturino/storefront/checkout/pkg/request"
)

type Cart struct {
	Items     []cart.LineItem `json:"items"`
	LineCount int             `json:"lineCount"`
	ItemCount int             `json:"itemCount"`
}

type Wishlist struct {
	Items []cart.ProductSummary `json:"items"`
	Added *bool                 `json:"added,omitempty"`
}

type Confirmation struct {
	OrderID  uuid.UUID       `json:"orderId"`
	Status   string          `json:"status"`
	PlacedAt time.Time       `json:"placedAt"`
	Total    decimal.Decimal `json:"total"`
	Redirect string          `json:"redirect"`
}

type Order struct {
	ID          uuid.UUID       `json:"id"`
	Status      string          `json:"status"`
	PlacedAt    time.Time       `json:"placedAt"`
	Items       []cart.LineItem `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Last4       string          `json:"last4,omitempty"`
	Method      string          `json:"paymentMethod"`
	PostalCode  string          `json:"postalCode"`
}

func ToCart(items []cart.LineItem) Cart {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return Cart{Items: items, LineCount: len(items), ItemCount: count}
}

func ToConfirmation(confirmation service.Confirmation) Confirmation {
	return Confirmation{
		OrderID:  confirmation.Receipt.OrderID,
		Status:   string(confirmation.Receipt.Status),
		PlacedAt: confirmation.Receipt.PlacedAt,
		Total:    confirmation.Pricing.Total,
		Redirect: confirmation.Redirect,
	}
}

func ToOrder(o order.Order) Order {
	return Order{
		ID:          o.ID,
		Status:      string(o.Status),
		PlacedAt:    o.PlacedAt,
		Items:       o.LineItems,
		Total:       o.Pricing.Total,
		Last4:       o.Payment.Last4,
		Method:      o.Payment.Method,
		PostalCode:  o.ShippingAddress.PostalCode,
	}
}

func ToProductSummary(req request.ToggleWishlist) cart.ProductSummary {
	return cart.ProductSummary{
		ID:    req.ID,
		Name:  req.Name,
		Brand: req.Brand,
		Price: req.Price,
		Image: req.Image,
	}
}
