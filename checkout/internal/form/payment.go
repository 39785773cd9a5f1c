package form

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type CreditCard struct {
	Number       string `json:"number"       validate:"required,cardnumber"`
	HolderName   string `json:"holderName"   validate:"required"`
	Expiry       string `json:"expiry"       validate:"required,expiry"`
	CVV          string `json:"cvv"          validate:"required,cvv"`
	Installments int    `json:"installments" validate:"omitempty,oneof=1 2 3 6 12"`
}

type Pix struct {
	Key     string `json:"key"     validate:"required"`
	KeyType string `json:"keyType" validate:"required,oneof=email phone tax_id random"`
}

// PaymentInstrument is tagged by Method; only the matching branch may be set.
type PaymentInstrument struct {
	Method     string      `json:"method"               validate:"required,oneof=credit_card pix"`
	CreditCard *CreditCard `json:"creditCard,omitempty" validate:"omitempty"`
	Pix        *Pix        `json:"pix,omitempty"        validate:"omitempty"`
}

// PaymentSummary is the part of an instrument that may be stored and logged.
type PaymentSummary struct {
	Method       string `json:"method"`
	HolderName   string `json:"holderName,omitempty"`
	Last4        string `json:"last4,omitempty"`
	Installments int    `json:"installments,omitempty"`
	PixKeyType   string `json:"pixKeyType,omitempty"`
}

func (p PaymentInstrument) Summary() PaymentSummary {
	summary := PaymentSummary{Method: p.Method}
	switch {
	case p.Method == MethodCreditCard && p.CreditCard != nil:
		number := digits(p.CreditCard.Number)
		if len(number) >= 4 {
			summary.Last4 = number[len(number)-4:]
		}
		summary.HolderName = strings.TrimSpace(p.CreditCard.HolderName)
		summary.Installments = p.CreditCard.Installments
		if summary.Installments == 0 {
			summary.Installments = 1
		}
	case p.Method == MethodPix && p.Pix != nil:
		summary.PixKeyType = p.Pix.KeyType
	}
	return summary
}

// ValidatePayment checks a trimmed copy of instrument without changing it.
func ValidatePayment(instrument PaymentInstrument) FieldErrors {
	return toFieldErrors(validatorInstance().Struct(trimPayment(instrument)))
}

func trimPayment(instrument PaymentInstrument) PaymentInstrument {
	out := PaymentInstrument{Method: strings.TrimSpace(instrument.Method)}
	if instrument.CreditCard != nil {
		out.CreditCard = &CreditCard{
			Number:       strings.TrimSpace(instrument.CreditCard.Number),
			HolderName:   strings.TrimSpace(instrument.CreditCard.HolderName),
			Expiry:       strings.TrimSpace(instrument.CreditCard.Expiry),
			CVV:          strings.TrimSpace(instrument.CreditCard.CVV),
			Installments: instrument.CreditCard.Installments,
		}
	}
	if instrument.Pix != nil {
		out.Pix = &Pix{
			Key:     strings.TrimSpace(instrument.Pix.Key),
			KeyType: strings.TrimSpace(instrument.Pix.KeyType),
		}
	}
	return out
}

func paymentStructLevel(sl validator.StructLevel) {
	instrument := sl.Current().Interface().(PaymentInstrument)
	switch instrument.Method {
	case MethodCreditCard:
		if instrument.CreditCard == nil {
			sl.ReportError(instrument.CreditCard, "creditCard", "CreditCard", "required", "")
		}
		if instrument.Pix != nil {
			sl.ReportError(instrument.Pix, "pix", "Pix", "excluded", "")
		}
	case MethodPix:
		if instrument.Pix == nil {
			sl.ReportError(instrument.Pix, "pix", "Pix", "required", "")
		}
		if instrument.CreditCard != nil {
			sl.ReportError(instrument.CreditCard, "creditCard", "CreditCard", "excluded", "")
		}
	}
}

func pixStructLevel(sl validator.StructLevel) {
	pix := sl.Current().Interface().(Pix)
	key := strings.TrimSpace(pix.Key)
	if key == "" {
		sl.ReportError(pix.Key, "key", "Key", "required", "")
		return
	}

	valid := true
	switch pix.KeyType {
	case PixKeyEmail:
		valid = emailRegex.MatchString(key)
	case PixKeyPhone:
		valid = phoneRegex.MatchString(phoneCleaner.ReplaceAllString(key, ""))
	case PixKeyTaxID:
		taxID := digits(key)
		valid = len(taxID) == 11 || len(taxID) == 14
	case PixKeyRandom:
	default:
		return
	}
	if !valid {
		sl.ReportError(pix.Key, "key", "Key", "pixkey", pix.KeyType)
	}
}
