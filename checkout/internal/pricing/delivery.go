package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
)

type DeliveryID string

const (
	DeliveryStandard DeliveryID = "standard"
	DeliveryExpress  DeliveryID = "express"
	DeliverySameDay  DeliveryID = "same_day"
)

type DeliveryOption struct {
	ID          DeliveryID      `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FlatCost    decimal.Decimal `json:"flatCost"`
}

// Catalog holds the selectable delivery options in display order.
type Catalog struct {
	options []DeliveryOption
	byID    map[DeliveryID]DeliveryOption
	def     DeliveryID
}

func (id DeliveryID) known() bool {
	switch id {
	case DeliveryStandard, DeliveryExpress, DeliverySameDay:
		return true
	}
	return false
}

func NewCatalog(options []DeliveryOption) (*Catalog, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("empty delivery catalog with error=%w", checkoutErrors.ErrUnknownDeliveryOption)
	}

	catalog := &Catalog{
		options: make([]DeliveryOption, 0, len(options)),
		byID:    make(map[DeliveryID]DeliveryOption, len(options)),
		def:     options[0].ID,
	}
	for _, option := range options {
		if !option.ID.known() {
			return nil, fmt.Errorf("delivery option=%s with error=%w", option.ID, checkoutErrors.ErrUnknownDeliveryOption)
		}
		if _, ok := catalog.byID[option.ID]; ok {
			return nil, fmt.Errorf("duplicate delivery option=%s", option.ID)
		}
		if option.FlatCost.IsNegative() {
			return nil, fmt.Errorf("delivery option=%s has negative cost=%s", option.ID, option.FlatCost)
		}
		option.FlatCost = option.FlatCost.Round(2)
		catalog.options = append(catalog.options, option)
		catalog.byID[option.ID] = option
	}
	if _, ok := catalog.byID[DeliveryStandard]; ok {
		catalog.def = DeliveryStandard
	}
	return catalog, nil
}

func (c *Catalog) Lookup(id DeliveryID) (DeliveryOption, error) {
	option, ok := c.byID[id]
	if !ok {
		return DeliveryOption{}, fmt.Errorf("failed looking up delivery option=%s with error=%w", id, checkoutErrors.ErrUnknownDeliveryOption)
	}
	return option, nil
}

func (c *Catalog) Default() DeliveryOption {
	return c.byID[c.def]
}

func (c *Catalog) Options() []DeliveryOption {
	out := make([]DeliveryOption, len(c.options))
	copy(out, c.options)
	return out
}
