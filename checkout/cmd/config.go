package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/promo"
	"github.com/Alturino/storefront/internal/config"
)

func promoTable(cfg config.Checkout) (*promo.Table, error) {
	rules := make([]promo.Rule, 0, len(cfg.PromoRules))
	for _, r := range cfg.PromoRules {
		value := decimal.Zero
		if r.Value != "" {
			v, err := decimal.NewFromString(r.Value)
			if err != nil {
				return nil, fmt.Errorf("failed parsing value of promo code=%s with error=%w", r.Code, err)
			}
			value = v
		}
		rules = append(rules, promo.Rule{
			Code:    r.Code,
			Kind:    promo.Kind(r.Kind),
			Value:   value,
			Message: r.Message,
		})
	}
	return promo.NewTable(rules)
}

func deliveryCatalog(cfg config.Checkout) (*pricing.Catalog, error) {
	options := make([]pricing.DeliveryOption, 0, len(cfg.DeliveryOptions))
	for _, o := range cfg.DeliveryOptions {
		cost, err := decimal.NewFromString(o.FlatCost)
		if err != nil {
			return nil, fmt.Errorf("failed parsing cost of delivery option=%s with error=%w", o.ID, err)
		}
		options = append(options, pricing.DeliveryOption{
			ID:          pricing.DeliveryID(o.ID),
			Name:        o.Name,
			Description: o.Description,
			FlatCost:    cost,
		})
	}
	return pricing.NewCatalog(options)
}

func giftWrapFee(cfg config.Checkout) (decimal.Decimal, error) {
	if cfg.GiftWrapFee == "" {
		return pricing.DefaultGiftWrapFee, nil
	}
	fee, err := decimal.NewFromString(cfg.GiftWrapFee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed parsing gift wrap fee with error=%w", err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("gift wrap fee=%s must not be negative", fee)
	}
	return fee, nil
}
