package wishlist

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductSummary is the product projection shown next to a wishlist entry.
type ProductSummary struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Image              *string   `json:"image"`
	ImageAlt           *string   `json:"imageAlt"`
	Description        string    `json:"description"`
	IsNumericVariation bool      `json:"isNumericVariation"`
}

// ItemView is a wishlist entry with display pricing read live from the
// product's first variation.
type ItemView struct {
	models.WishlistItem
	Product         *ProductSummary  `json:"product"`
	StockSize       *int             `json:"stockSize"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
}

func newItemView(item models.WishlistItem, product *models.Product) ItemView {
	view := ItemView{WishlistItem: item}
	if product == nil {
		return view
	}
	view.Product = &ProductSummary{
		ID:                 product.ID,
		Name:               product.Name,
		Image:              product.ImageURL,
		ImageAlt:           product.ImageAltURL,
		Description:        product.Description,
		IsNumericVariation: product.IsNumericVariation,
	}
	if len(product.Variations) > 0 {
		first := product.Variations[0]
		view.StockSize = first.Quantity
		view.Price = first.Price
		view.DiscountedPrice = first.DiscountedPrice
	}
	return view
}
