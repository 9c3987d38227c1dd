package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/taxes"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// snapshotItems freezes cart lines into order items.
func snapshotItems(lines []models.CartItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		details := line.VariationDetails
		if details.Price == nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cart line %s has no price", line.ID)
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cart line %s has no quantity", line.ID)
		}
		item := models.OrderItem{
			ItemID:        line.ProductID,
			VariationID:   line.VariationID,
			VariationName: details.Name,
			ItemQuantity:  line.Quantity,
			ItemPrice:     *details.Price,
		}
		if details.DiscountedPrice != nil {
			discounted := *details.DiscountedPrice
			item.ItemDiscountedPrice = &discounted
		}
		items = append(items, item)
	}
	return items, nil
}

// computeTotals applies the order money rules:
//
//	rawTotal   = Σ price × qty
//	discounts  = Σ (price − discounted) × qty where 0 < discounted < price
//	tax line   = round2((rawTotal − discounts) × pct / 100)
//	grossTotal = rawTotal − discounts + shipping + Σ tax lines
func computeTotals(items []models.OrderItem, shipping decimal.Decimal, active []models.Tax) Totals {
	raw := decimal.Zero
	discounts := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.ItemQuantity))
		raw = raw.Add(item.ItemPrice.Mul(qty))
		if d := item.ItemDiscountedPrice; d != nil && d.IsPositive() && d.LessThan(item.ItemPrice) {
			discounts = discounts.Add(item.ItemPrice.Sub(*d).Mul(qty))
		}
	}

	base := raw.Sub(discounts)
	lines := make([]models.TaxLine, 0, len(active))
	grossTax := decimal.Zero
	for _, tax := range active {
		line := taxes.Line(tax, base)
		grossTax = grossTax.Add(line.Amount)
		lines = append(lines, line)
	}

	return Totals{
		RawTotal:   raw.Round(2),
		Discounts:  discounts.Round(2),
		Shipping:   shipping.Round(2),
		GrossTax:   grossTax,
		GrossTotal: base.Add(shipping).Add(grossTax).Round(2),
		Taxes:      lines,
	}
}
