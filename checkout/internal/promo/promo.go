package promo

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
)

type Kind string

const (
	KindPercentOfSubtotal Kind = "percent_of_subtotal"
	KindWaiveShipping     Kind = "waive_shipping"
)

type Rule struct {
	Code    string          `json:"code"`
	Kind    Kind            `json:"kind"`
	Value   decimal.Decimal `json:"value"`
	Message string          `json:"message"`
}

type Resolver interface {
	Resolve(c context.Context, code string) (Rule, error)
}

// Table is an immutable code to rule lookup.
type Table struct {
	rules map[string]Rule
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewTable(rules []Rule) (*Table, error) {
	table := &Table{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		rule.Code = Normalize(rule.Code)
		if rule.Code == "" {
			return nil, fmt.Errorf("empty promo code with error=%w", checkoutErrors.ErrInvalidPromoRule)
		}
		if _, ok := table.rules[rule.Code]; ok {
			return nil, fmt.Errorf("duplicate promo code=%s with error=%w", rule.Code, checkoutErrors.ErrInvalidPromoRule)
		}
		switch rule.Kind {
		case KindPercentOfSubtotal:
			if rule.Value.IsNegative() || rule.Value.GreaterThan(decimal.NewFromInt(1)) {
				return nil, fmt.Errorf("promo code=%s value=%s out of range with error=%w", rule.Code, rule.Value, checkoutErrors.ErrInvalidPromoRule)
			}
		case KindWaiveShipping:
		default:
			return nil, fmt.Errorf("promo code=%s unknown kind=%s with error=%w", rule.Code, rule.Kind, checkoutErrors.ErrInvalidPromoRule)
		}
		table.rules[rule.Code] = rule
	}
	return table, nil
}

func (t *Table) Resolve(_ context.Context, code string) (Rule, error) {
	rule, ok := t.rules[Normalize(code)]
	if !ok {
		return Rule{}, checkoutErrors.ErrPromoNotFound
	}
	return rule, nil
}

func (t *Table) Len() int {
	return len(t.rules)
}
