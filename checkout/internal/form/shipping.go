package form

import (
	"fmt"
	"strings"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
)

type ShippingAddress struct {
	FullName     string `json:"fullName"     validate:"required"`
	PostalCode   string `json:"postalCode"   validate:"required,postalcode"`
	Street       string `json:"street"       validate:"required"`
	Number       string `json:"number"       validate:"required"`
	Complement   string `json:"complement"   validate:"omitempty"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city"         validate:"required"`
	Region       string `json:"region"       validate:"required,region"`
}

// NormalizePostalCode strips everything but digits and formats the result as
// NNNNN-NNN.
func NormalizePostalCode(postalCode string) (string, error) {
	d := digits(postalCode)
	if len(d) != 8 {
		return "", fmt.Errorf("postal code=%s with error=%w", postalCode, checkoutErrors.ErrInvalidPostalCode)
	}
	return d[:5] + "-" + d[5:], nil
}

// NormalizeShipping returns a trimmed copy with the postal code formatted and
// the region upper-cased. Values it cannot normalise are left as given.
func NormalizeShipping(addr ShippingAddress) ShippingAddress {
	out := ShippingAddress{
		FullName:     strings.TrimSpace(addr.FullName),
		PostalCode:   strings.TrimSpace(addr.PostalCode),
		Street:       strings.TrimSpace(addr.Street),
		Number:       strings.TrimSpace(addr.Number),
		Complement:   strings.TrimSpace(addr.Complement),
		Neighborhood: strings.TrimSpace(addr.Neighborhood),
		City:         strings.TrimSpace(addr.City),
		Region:       strings.ToUpper(strings.TrimSpace(addr.Region)),
	}
	if postalCode, err := NormalizePostalCode(out.PostalCode); err == nil {
		out.PostalCode = postalCode
	}
	return out
}

// ValidateShipping checks the normalised form of addr without changing it.
func ValidateShipping(addr ShippingAddress) FieldErrors {
	normalized := NormalizeShipping(addr)
	return toFieldErrors(validatorInstance().Struct(normalized))
}
