package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrInvalidPrice          = errors.New("unit price must not be negative")
	ErrItemNotFound          = errors.New("item not found in cart")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrPromoNotFound         = errors.New("promo code not found")
	ErrOrderSubmission       = errors.New("order submission failed")
	ErrSubmissionInFlight    = errors.New("order submission already in progress")
	ErrSubmissionAbandoned   = errors.New("order submission abandoned")
	ErrInvalidTransition     = errors.New("invalid checkout transition")
	ErrUnknownDeliveryOption = errors.New("unknown delivery option")
	ErrPostalCodeNotFound    = errors.New("postal code not found")
	ErrInvalidPostalCode     = errors.New("invalid postal code")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidPromoRule      = errors.New("invalid promo rule")
)

// ValidationError carries one message per offending json field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	ok := errors.As(err, &validationErr)
	return validationErr, ok
}
