package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/checkout/internal/cart"
	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/promo"
)

func defaultOptions() []DeliveryOption {
	return []DeliveryOption{
		{ID: DeliveryStandard, Name: "Standard", FlatCost: decimal.RequireFromString("0.00")},
		{ID: DeliveryExpress, Name: "Express", FlatCost: decimal.RequireFromString("15.90")},
		{ID: DeliverySameDay, Name: "Same day", FlatCost: decimal.RequireFromString("29.90")},
	}
}

func defaultRules() []promo.Rule {
	return []promo.Rule{
		{Code: "LUXE10", Kind: promo.KindPercentOfSubtotal, Value: decimal.RequireFromString("0.10")},
		{Code: "PRIMEIRA20", Kind: promo.KindPercentOfSubtotal, Value: decimal.RequireFromString("0.20")},
		{Code: "FRETEGRATIS", Kind: promo.KindWaiveShipping},
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(expected).Equal(actual), "%s expected=%s actual=%s", field, expected, actual.StringFixed(2))
}

func TestEngineCompute(t *testing.T) {
	items := []cart.LineItem{
		{ProductID: "1", UnitPrice: d("100.00"), Quantity: 2},
		{ProductID: "2", UnitPrice: d("50.00"), Quantity: 1},
	}
	catalog, err := NewCatalog(defaultOptions())
	require.NoError(t, err)

	percent := func(value string) *promo.Rule {
		return &promo.Rule{Code: "P", Kind: promo.KindPercentOfSubtotal, Value: d(value)}
	}
	waive := &promo.Rule{Code: "FRETEGRATIS", Kind: promo.KindWaiveShipping}

	type testCase struct {
		name         string
		items        []cart.LineItem
		delivery     DeliveryID
		rule         *promo.Rule
		giftWrap     bool
		subtotal     string
		discount     string
		shippingCost string
		giftWrapFee  string
		total        string
		itemCount    int
	}

	testCases := []testCase{
		{
			name: "standard delivery no promo", items: items, delivery: DeliveryStandard,
			subtotal: "250.00", discount: "0", shippingCost: "0", giftWrapFee: "0", total: "250.00", itemCount: 3,
		},
		{
			name: "ten percent", items: items, delivery: DeliveryStandard, rule: percent("0.10"),
			subtotal: "250.00", discount: "25.00", shippingCost: "0", giftWrapFee: "0", total: "225.00", itemCount: 3,
		},
		{
			name: "express with gift wrap", items: items, delivery: DeliveryExpress, giftWrap: true,
			subtotal: "250.00", discount: "0", shippingCost: "15.90", giftWrapFee: "9.90", total: "275.80", itemCount: 3,
		},
		{
			name: "waive shipping on express", items: items, delivery: DeliveryExpress, rule: waive,
			subtotal: "250.00", discount: "15.90", shippingCost: "0", giftWrapFee: "0", total: "250.00", itemCount: 3,
		},
		{
			name: "waive shipping on free delivery", items: items, delivery: DeliveryStandard, rule: waive,
			subtotal: "250.00", discount: "0", shippingCost: "0", giftWrapFee: "0", total: "250.00", itemCount: 3,
		},
		{
			name: "percent discount capped at subtotal", items: items, delivery: DeliverySameDay, rule: percent("1"),
			subtotal: "250.00", discount: "250.00", shippingCost: "29.90", giftWrapFee: "0", total: "29.90", itemCount: 3,
		},
		{
			name: "percent discount rounds to cents", delivery: DeliveryStandard, rule: percent("0.10"),
			items:    []cart.LineItem{{ProductID: "1", UnitPrice: d("0.15"), Quantity: 1}},
			subtotal: "0.15", discount: "0.02", shippingCost: "0", giftWrapFee: "0", total: "0.13", itemCount: 1,
		},
		{
			name: "empty cart with gift wrap", delivery: DeliveryExpress, giftWrap: true,
			subtotal: "0", discount: "0", shippingCost: "15.90", giftWrapFee: "9.90", total: "25.80",
		},
		{
			name: "binary float unfriendly amounts", delivery: DeliveryStandard,
			items: []cart.LineItem{
				{ProductID: "1", UnitPrice: d("0.10"), Quantity: 1},
				{ProductID: "2", UnitPrice: d("0.20"), Quantity: 1},
			},
			subtotal: "0.30", discount: "0", shippingCost: "0", giftWrapFee: "0", total: "0.30", itemCount: 2,
		},
	}

	engine := NewEngine(DefaultGiftWrapFee)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			delivery, err := catalog.Lookup(tc.delivery)
			require.NoError(t, err)

			snapshot := engine.Compute(tc.items, delivery, tc.rule, tc.giftWrap)
			assertDecimal(t, tc.subtotal, snapshot.Subtotal, "subtotal")
			assertDecimal(t, tc.discount, snapshot.Discount, "discount")
			assertDecimal(t, tc.shippingCost, snapshot.ShippingCost, "shippingCost")
			assertDecimal(t, tc.giftWrapFee, snapshot.GiftWrapFee, "giftWrapFee")
			assertDecimal(t, tc.total, snapshot.Total, "total")
			assert.Equal(t, tc.itemCount, snapshot.ItemCount)
			assert.Equal(t, tc.delivery, snapshot.DeliveryOption)
		})
	}
}

func TestEngineComputeIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	engine := NewEngine(DefaultGiftWrapFee)
	catalog, err := NewCatalog(defaultOptions())
	require.NoError(t, err)
	rule := &promo.Rule{Code: "LUXE10", Kind: promo.KindPercentOfSubtotal, Value: d("0.10")}

	for i := 0; i < 100; i++ {
		items := make([]cart.LineItem, 0, 5)
		expected := decimal.Zero
		for j := 0; j < 1+r.Intn(5); j++ {
			price := decimal.New(int64(r.Intn(100000)), -2)
			quantity := 1 + r.Intn(10)
			items = append(items, cart.LineItem{ProductID: "p", UnitPrice: price, Quantity: quantity})
			expected = expected.Add(price.Mul(decimal.NewFromInt(int64(quantity))))
		}

		first := engine.Compute(items, catalog.Default(), rule, true)
		second := engine.Compute(items, catalog.Default(), rule, true)
		assert.True(t, expected.Equal(first.Subtotal))
		assert.True(t, first.Total.Equal(second.Total))
		assert.True(t, first.Discount.LessThanOrEqual(first.Subtotal))
		assert.False(t, first.Total.IsNegative())
	}
}

func TestCatalog(t *testing.T) {
	catalog, err := NewCatalog(defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, DeliveryStandard, catalog.Default().ID)
	assert.Len(t, catalog.Options(), 3)

	_, err = catalog.Lookup("teleport")
	assert.ErrorIs(t, err, checkoutErrors.ErrUnknownDeliveryOption)

	_, err = NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog([]DeliveryOption{
		{ID: DeliveryStandard, FlatCost: d("0")},
		{ID: DeliveryStandard, FlatCost: d("1")},
	})
	assert.Error(t, err)

	_, err = NewCatalog([]DeliveryOption{{ID: DeliveryExpress, FlatCost: d("-1")}})
	assert.Error(t, err)

	_, err = NewCatalog([]DeliveryOption{{ID: DeliveryStandard, FlatCost: d("0")}, {ID: "drone", FlatCost: d("5")}})
	assert.ErrorIs(t, err, checkoutErrors.ErrUnknownDeliveryOption)

	onlyExpress, err := NewCatalog([]DeliveryOption{{ID: DeliveryExpress, FlatCost: d("15.90")}})
	require.NoError(t, err)
	assert.Equal(t, DeliveryExpress, onlyExpress.Default().ID)
}
