package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a validator that reports json field names and understands
// decimal amounts.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(JsonTagName)
	v.RegisterCustomTypeFunc(PriceValue, decimal.Decimal{})
	_ = v.RegisterValidation("price", ValidatePrice)
	return v
}

func JsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// ValidatePrice accepts non-negative amounts given either as decimal strings
// or as decimal.Decimal values.
func ValidatePrice(fl validator.FieldLevel) bool {
	switch value := fl.Field().Interface().(type) {
	case string:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return false
		}
		return !d.IsNegative()
	case float64:
		return value >= 0
	default:
		return false
	}
}

func PriceValue(v reflect.Value) interface{} {
	n, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return n.String()
}
