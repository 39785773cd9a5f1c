package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Alturino/storefront/internal/common/validate"
)

// FieldErrors maps a json field path to a message. Empty means valid.
type FieldErrors map[string]string

const (
	MethodCreditCard = "credit_card"
	MethodPix        = "pix"

	PixKeyEmail  = "email"
	PixKeyPhone  = "phone"
	PixKeyTaxID  = "tax_id"
	PixKeyRandom = "random"
)

var Regions = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT", "MS", "MG", "PA",
	"PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

var (
	nonDigits    = regexp.MustCompile(`\D`)
	expiryRegex  = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex   = regexp.MustCompile(`^\+?\d{10,13}$`)
	phoneCleaner = regexp.MustCompile(`[\s()\-]`)
	regionSet    = map[string]struct{}{}

	once     sync.Once
	instance *validator.Validate
)

func init() {
	for _, region := range Regions {
		regionSet[region] = struct{}{}
	}
}

func digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

func validatorInstance() *validator.Validate {
	once.Do(func() {
		v := validate.New()
		mustRegister(v, "postalcode", func(fl validator.FieldLevel) bool {
			return len(digits(fl.Field().String())) == 8
		})
		mustRegister(v, "region", func(fl validator.FieldLevel) bool {
			_, ok := regionSet[strings.ToUpper(fl.Field().String())]
			return ok
		})
		mustRegister(v, "cardnumber", func(fl validator.FieldLevel) bool {
			number := strings.ReplaceAll(fl.Field().String(), " ", "")
			return len(number) >= 13 && len(number) <= 19 && digits(number) == number
		})
		mustRegister(v, "expiry", func(fl validator.FieldLevel) bool {
			return expiryRegex.MatchString(fl.Field().String())
		})
		mustRegister(v, "cvv", func(fl validator.FieldLevel) bool {
			cvv := fl.Field().String()
			return (len(cvv) == 3 || len(cvv) == 4) && digits(cvv) == cvv
		})
		v.RegisterStructValidation(pixStructLevel, Pix{})
		v.RegisterStructValidation(paymentStructLevel, PaymentInstrument{})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed registering validation tag=%s with error=%s", tag, err.Error()))
	}
}

func toFieldErrors(err error) FieldErrors {
	fields := FieldErrors{}
	if err == nil {
		return fields
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range validationErrors {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		if _, ok := fields[path]; ok {
			continue
		}
		fields[path] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "postalcode":
		return "must have 8 digits (NNNNN-NNN)"
	case "region":
		return "must be a valid state code"
	case "cardnumber":
		return "must have 13 to 19 digits"
	case "expiry":
		return "must match MM/YY"
	case "cvv":
		return "must have 3 or 4 digits"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "pixkey":
		return fmt.Sprintf("is not a valid %s key", fe.Param())
	case "excluded":
		return "must not be present for this method"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
