package products

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func dec(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func nullString(n decimal.NullDecimal) string {
	if !n.Valid {
		return "null"
	}
	return n.Decimal.StringFixed(2)
}

func TestResolvePricing(t *testing.T) {
	cases := []struct {
		name       string
		numeric    bool
		variations []models.Variation
		price      string
		discounted string
		cost       string
	}{
		{
			name:    "flat picks minimum",
			numeric: false,
			variations: []models.Variation{
				{Price: dec("20"), DiscountedPrice: dec("18"), Cost: dec("9")},
				{Price: dec("15"), DiscountedPrice: dec("12"), Cost: dec("7")},
			},
			price: "15.00", discounted: "12.00", cost: "7.00",
		},
		{
			name:    "flat tie keeps first champion",
			numeric: false,
			variations: []models.Variation{
				{Price: dec("10"), DiscountedPrice: dec("9"), Cost: dec("5")},
				{Price: dec("10"), DiscountedPrice: dec("8"), Cost: dec("4")},
			},
			price: "10.00", discounted: "9.00", cost: "5.00",
		},
		{
			name:    "flat zero discount is a value",
			numeric: false,
			variations: []models.Variation{
				{Price: dec("20"), DiscountedPrice: dec("18")},
				{Price: dec("10"), DiscountedPrice: dec("0")},
			},
			price: "10.00", discounted: "0.00", cost: "null",
		},
		{
			name:    "flat missing discount and cost inherit",
			numeric: false,
			variations: []models.Variation{
				{Price: dec("20"), DiscountedPrice: dec("18"), Cost: dec("6")},
				{Price: dec("10")},
			},
			price: "10.00", discounted: "18.00", cost: "6.00",
		},
		{
			name:    "flat skips unpriced",
			numeric: false,
			variations: []models.Variation{
				{Cost: dec("1"), DiscountedPrice: dec("1")},
			},
			price: "null", discounted: "null", cost: "null",
		},
		{
			name:    "numeric scans inner variations",
			numeric: true,
			variations: []models.Variation{
				{Price: dec("1"), InnerVariations: []models.Variation{
					{Price: dec("30"), DiscountedPrice: dec("25"), Cost: dec("12")},
				}},
				{InnerVariations: []models.Variation{
					{Price: dec("22.5"), DiscountedPrice: dec("20"), Cost: dec("11")},
					{Price: dec("40")},
				}},
			},
			price: "22.50", discounted: "20.00", cost: "11.00",
		},
		{
			name:    "numeric zero discount inherits",
			numeric: true,
			variations: []models.Variation{
				{InnerVariations: []models.Variation{
					{Price: dec("30"), DiscountedPrice: dec("25")},
					{Price: dec("20"), DiscountedPrice: dec("0")},
				}},
			},
			price: "20.00", discounted: "25.00", cost: "null",
		},
		{
			name:       "numeric without inner variations",
			numeric:    true,
			variations: []models.Variation{{Price: dec("5")}},
			price:      "null", discounted: "null", cost: "null",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolvePricing(tc.variations, tc.numeric)
			assert.Equal(t, tc.price, nullString(got.Price))
			assert.Equal(t, tc.discounted, nullString(got.DiscountedPrice))
			assert.Equal(t, tc.cost, nullString(got.Cost))
		})
	}
}

func TestAssignVariationIDsKeepsExisting(t *testing.T) {
	variations := []models.Variation{
		{ID: "keep-me", InnerVariations: []models.Variation{{}, {ID: "inner"}}},
		{},
	}
	AssignVariationIDs(variations)

	assert.Equal(t, "keep-me", variations[0].ID)
	assert.NotEmpty(t, variations[0].InnerVariations[0].ID)
	assert.Equal(t, "inner", variations[0].InnerVariations[1].ID)
	require.NotEmpty(t, variations[1].ID)
	assert.NotEqual(t, variations[1].ID, variations[0].InnerVariations[0].ID)
}
