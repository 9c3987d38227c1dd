package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type AddInput struct {
	ProductID   uuid.UUID
	VariationID string
	Quantity    int
}

// QuantityPatch sets the quantity of one line.
type QuantityPatch struct {
	ID       uuid.UUID `json:"_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=1"`
}

// ProductSummary is the product projection shown next to a cart line.
type ProductSummary struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Image              *string            `json:"image"`
	ImageAlt           *string            `json:"imageAlt"`
	Description        string             `json:"description"`
	IsNumericVariation bool               `json:"isNumericVariation"`
	Variations         []models.Variation `json:"variations"`
}

// LineView is a cart line as the shopper sees it. Price, DiscountedPrice and
// StockSize come from the snapshot taken when the line was added.
type LineView struct {
	models.CartItem
	Product         *ProductSummary  `json:"product"`
	StockSize       *int             `json:"stockSize"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
}

func summarize(product models.Product) *ProductSummary {
	return &ProductSummary{
		ID:                 product.ID,
		Name:               product.Name,
		Image:              product.ImageURL,
		ImageAlt:           product.ImageAltURL,
		Description:        product.Description,
		IsNumericVariation: product.IsNumericVariation,
		Variations:         models.WithoutCosts(product.Variations),
	}
}
