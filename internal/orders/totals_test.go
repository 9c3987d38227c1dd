package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{ItemQuantity: 2, ItemPrice: dec("10"), ItemDiscountedPrice: decPtr("8")},
		{ItemQuantity: 1, ItemPrice: dec("20")},
		{ItemQuantity: 3, ItemPrice: dec("5"), ItemDiscountedPrice: decPtr("0")},
		{ItemQuantity: 1, ItemPrice: dec("7"), ItemDiscountedPrice: decPtr("9")},
	}
	active := []models.Tax{
		{ID: uuid.New(), TaxName: "VAT", Percentage: dec("10")},
		{ID: uuid.New(), TaxName: "Eco", Percentage: dec("2.5")},
	}

	totals := computeTotals(items, dec("4.99"), active)

	assert.Equal(t, "62", totals.RawTotal.String())
	assert.Equal(t, "4", totals.Discounts.String())
	require.Len(t, totals.Taxes, 2)
	assert.Equal(t, "5.8", totals.Taxes[0].Amount.String())
	assert.Equal(t, "1.45", totals.Taxes[1].Amount.String())
	assert.Equal(t, "7.25", totals.GrossTax.String())
	assert.Equal(t, "70.24", totals.GrossTotal.String())
}

func TestComputeTotalsWithoutTaxes(t *testing.T) {
	totals := computeTotals([]models.OrderItem{{ItemQuantity: 1, ItemPrice: dec("12.50")}}, decimal.Zero, nil)
	assert.True(t, totals.GrossTax.IsZero())
	assert.Empty(t, totals.Taxes)
	assert.Equal(t, "12.5", totals.GrossTotal.String())
}

func TestSnapshotItemsRejectsUnpricedLines(t *testing.T) {
	_, err := snapshotItems([]models.CartItem{{ID: uuid.New(), Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	lines := []models.CartItem{{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		VariationID: "v1",
		Quantity:    2,
		VariationDetails: models.VariationSnapshot{
			Name:            "Large",
			Price:           decPtr("10"),
			DiscountedPrice: decPtr("8"),
		},
	}}
	items, err := snapshotItems(lines)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Large", items[0].VariationName)
	assert.Equal(t, 2, items[0].ItemQuantity)
	require.NotNil(t, items[0].ItemDiscountedPrice)
	assert.True(t, dec("8").Equal(*items[0].ItemDiscountedPrice))
}
