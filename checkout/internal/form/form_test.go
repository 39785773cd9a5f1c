package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName:     "Ana Souza",
		PostalCode:   "01310100",
		Street:       "Avenida Paulista",
		Number:       "1000",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		Region:       "SP",
	}
}

func validCard() *CreditCard {
	return &CreditCard{
		Number:       "4111 1111 1111 1111",
		HolderName:   "ANA SOUZA",
		Expiry:       "12/29",
		CVV:          "123",
		Installments: 3,
	}
}

func TestValidateShipping(t *testing.T) {
	type testCase struct {
		name     string
		mutate   func(addr *ShippingAddress)
		expected []string
	}

	testCases := []testCase{
		{name: "valid", mutate: func(addr *ShippingAddress) {}},
		{name: "complement is optional", mutate: func(addr *ShippingAddress) { addr.Complement = "" }},
		{name: "formatted postal code", mutate: func(addr *ShippingAddress) { addr.PostalCode = "01310-100" }},
		{name: "lower case region", mutate: func(addr *ShippingAddress) { addr.Region = "rj" }},
		{name: "missing full name", mutate: func(addr *ShippingAddress) { addr.FullName = "" }, expected: []string{"fullName"}},
		{name: "blank street", mutate: func(addr *ShippingAddress) { addr.Street = "   " }, expected: []string{"street"}},
		{name: "missing number", mutate: func(addr *ShippingAddress) { addr.Number = "" }, expected: []string{"number"}},
		{name: "missing neighborhood", mutate: func(addr *ShippingAddress) { addr.Neighborhood = "" }, expected: []string{"neighborhood"}},
		{name: "missing city", mutate: func(addr *ShippingAddress) { addr.City = "" }, expected: []string{"city"}},
		{name: "short postal code", mutate: func(addr *ShippingAddress) { addr.PostalCode = "0131-01" }, expected: []string{"postalCode"}},
		{name: "missing postal code", mutate: func(addr *ShippingAddress) { addr.PostalCode = "" }, expected: []string{"postalCode"}},
		{name: "unknown region", mutate: func(addr *ShippingAddress) { addr.Region = "XX" }, expected: []string{"region"}},
		{
			name:     "everything empty",
			mutate:   func(addr *ShippingAddress) { *addr = ShippingAddress{} },
			expected: []string{"fullName", "postalCode", "street", "number", "neighborhood", "city", "region"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr := validAddress()
			tc.mutate(&addr)
			before := addr

			fields := ValidateShipping(addr)
			assert.Equal(t, before, addr)
			assert.Len(t, fields, len(tc.expected))
			for _, field := range tc.expected {
				assert.Contains(t, fields, field)
			}
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	type testCase struct {
		input     string
		expected  string
		wantError bool
	}

	testCases := []testCase{
		{input: "01310100", expected: "01310-100"},
		{input: "01310-100", expected: "01310-100"},
		{input: " 01.310-100 ", expected: "01310-100"},
		{input: "1234567", wantError: true},
		{input: "123456789", wantError: true},
		{input: "", wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			postalCode, err := NormalizePostalCode(tc.input)
			if tc.wantError {
				assert.ErrorIs(t, err, checkoutErrors.ErrInvalidPostalCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, postalCode)
		})
	}
}

func TestValidatePayment(t *testing.T) {
	type testCase struct {
		name       string
		instrument PaymentInstrument
		expected   []string
	}

	withCard := func(mutate func(card *CreditCard)) PaymentInstrument {
		card := validCard()
		mutate(card)
		return PaymentInstrument{Method: MethodCreditCard, CreditCard: card}
	}
	withPix := func(key string, keyType string) PaymentInstrument {
		return PaymentInstrument{Method: MethodPix, Pix: &Pix{Key: key, KeyType: keyType}}
	}

	testCases := []testCase{
		{name: "valid card", instrument: withCard(func(card *CreditCard) {})},
		{name: "thirteen digit card", instrument: withCard(func(card *CreditCard) { card.Number = "4222222222222" })},
		{name: "four digit cvv", instrument: withCard(func(card *CreditCard) { card.CVV = "1234" })},
		{name: "installments omitted", instrument: withCard(func(card *CreditCard) { card.Installments = 0 })},
		{name: "short card number", instrument: withCard(func(card *CreditCard) { card.Number = "4111 1111" }), expected: []string{"creditCard.number"}},
		{name: "twenty digit card number", instrument: withCard(func(card *CreditCard) { card.Number = "41111111111111111111" }), expected: []string{"creditCard.number"}},
		{name: "letters in card number", instrument: withCard(func(card *CreditCard) { card.Number = "4111 1111 1111 111a" }), expected: []string{"creditCard.number"}},
		{name: "missing holder", instrument: withCard(func(card *CreditCard) { card.HolderName = "" }), expected: []string{"creditCard.holderName"}},
		{name: "month thirteen", instrument: withCard(func(card *CreditCard) { card.Expiry = "13/29" }), expected: []string{"creditCard.expiry"}},
		{name: "expiry without slash", instrument: withCard(func(card *CreditCard) { card.Expiry = "1229" }), expected: []string{"creditCard.expiry"}},
		{name: "two digit cvv", instrument: withCard(func(card *CreditCard) { card.CVV = "12" }), expected: []string{"creditCard.cvv"}},
		{name: "unsupported installments", instrument: withCard(func(card *CreditCard) { card.Installments = 5 }), expected: []string{"creditCard.installments"}},
		{name: "card method without card", instrument: PaymentInstrument{Method: MethodCreditCard}, expected: []string{"creditCard"}},
		{
			name:       "card method with pix branch",
			instrument: PaymentInstrument{Method: MethodCreditCard, CreditCard: validCard(), Pix: &Pix{Key: "a@b.co", KeyType: PixKeyEmail}},
			expected:   []string{"pix"},
		},
		{name: "unknown method", instrument: PaymentInstrument{Method: "boleto"}, expected: []string{"method"}},
		{name: "valid email pix", instrument: withPix("ana@example.com", PixKeyEmail)},
		{name: "valid phone pix", instrument: withPix("+55 (11) 98765-4321", PixKeyPhone)},
		{name: "valid cpf pix", instrument: withPix("123.456.789-09", PixKeyTaxID)},
		{name: "valid cnpj pix", instrument: withPix("12.345.678/0001-95", PixKeyTaxID)},
		{name: "valid random pix", instrument: withPix("7d9f0a3e-anything", PixKeyRandom)},
		{name: "invalid email pix", instrument: withPix("ana@", PixKeyEmail), expected: []string{"pix.key"}},
		{name: "invalid phone pix", instrument: withPix("12345", PixKeyPhone), expected: []string{"pix.key"}},
		{name: "invalid tax id pix", instrument: withPix("123", PixKeyTaxID), expected: []string{"pix.key"}},
		{name: "missing pix key", instrument: withPix("", PixKeyRandom), expected: []string{"pix.key"}},
		{name: "unknown pix key type", instrument: withPix("abc", "bank"), expected: []string{"pix.keyType"}},
		{name: "blank email pix key", instrument: withPix("   ", PixKeyEmail), expected: []string{"pix.key"}},
		{name: "blank random pix key", instrument: withPix("   ", PixKeyRandom), expected: []string{"pix.key"}},
		{name: "padded email pix key", instrument: withPix("  ana@example.com ", PixKeyEmail)},
		{name: "blank holder", instrument: withCard(func(card *CreditCard) { card.HolderName = "   " }), expected: []string{"creditCard.holderName"}},
		{name: "blank cvv", instrument: withCard(func(card *CreditCard) { card.CVV = "   " }), expected: []string{"creditCard.cvv"}},
		{name: "pix method without pix", instrument: PaymentInstrument{Method: MethodPix}, expected: []string{"pix"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fields := ValidatePayment(tc.instrument)
			assert.Lenf(t, fields, len(tc.expected), "fields=%v", fields)
			for _, field := range tc.expected {
				assert.Contains(t, fields, field)
			}
		})
	}
}

func TestPaymentSummary(t *testing.T) {
	card := PaymentInstrument{Method: MethodCreditCard, CreditCard: validCard()}
	summary := card.Summary()
	assert.Equal(t, PaymentSummary{
		Method:       MethodCreditCard,
		HolderName:   "ANA SOUZA",
		Last4:        "1111",
		Installments: 3,
	}, summary)

	pix := PaymentInstrument{Method: MethodPix, Pix: &Pix{Key: "ana@example.com", KeyType: PixKeyEmail}}
	assert.Equal(t, PaymentSummary{Method: MethodPix, PixKeyType: PixKeyEmail}, pix.Summary())
}
