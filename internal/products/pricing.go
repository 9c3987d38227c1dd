package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Pricing is the cached minimum across a product's variations. Fields stay
// invalid when no priced variation exists.
type Pricing struct {
	Price           decimal.NullDecimal
	DiscountedPrice decimal.NullDecimal
	Cost            decimal.NullDecimal
}

// ResolvePricing picks the cheapest priced entry. Numeric products are scanned
// through their inner variations, flat products through the top-level list.
// Ties keep the first champion. A champion without a discounted price (or,
// in numeric mode, with a zero one) inherits the previous champion's value,
// and a champion without a cost inherits the running cost.
func ResolvePricing(variations []models.Variation, numeric bool) Pricing {
	var out Pricing
	consider := func(v models.Variation, zeroDiscountIsMissing bool) {
		if v.Price == nil {
			return
		}
		if out.Price.Valid && !v.Price.LessThan(out.Price.Decimal) {
			return
		}
		out.Price = decimal.NewNullDecimal(*v.Price)
		if v.DiscountedPrice != nil && !(zeroDiscountIsMissing && v.DiscountedPrice.IsZero()) {
			out.DiscountedPrice = decimal.NewNullDecimal(*v.DiscountedPrice)
		}
		if v.Cost != nil {
			out.Cost = decimal.NewNullDecimal(*v.Cost)
		}
	}

	if numeric {
		for _, variation := range variations {
			for _, inner := range variation.InnerVariations {
				consider(inner, true)
			}
		}
		return out
	}
	for _, variation := range variations {
		consider(variation, false)
	}
	return out
}

// Apply copies the resolved values onto the product.
func (p Pricing) Apply(product *models.Product) {
	product.Price = p.Price
	product.DiscountedPrice = p.DiscountedPrice
	product.Cost = p.Cost
}

// AssignVariationIDs gives every variation and inner variation without an id
// a fresh one. Existing ids are kept so cart lines stay valid across edits.
func AssignVariationIDs(variations []models.Variation) {
	for i := range variations {
		if variations[i].ID == "" {
			variations[i].ID = uuid.NewString()
		}
		AssignVariationIDs(variations[i].InnerVariations)
	}
}
