package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
)

// ProductInput is a decoded create or update payload. Derived pricing is not
// part of it; ResolvePricing fills that in.
type ProductInput struct {
	Name                string
	Type                string
	Description         string
	RichDescription     string
	Brand               string
	CategoryID          uuid.UUID
	SubCategoryID       uuid.UUID
	InnerSubCategory    *string
	IsNumericVariation  bool
	IsFeatured          bool
	Variations          []models.Variation
	Specifications      []models.Specification
	FilterIDs           []uuid.UUID
	OtherExistingImages []string
}

// ProductImages are the files uploaded alongside a payload.
type ProductImages struct {
	Image       *storage.Upload
	ImageAlt    *storage.Upload
	OtherImages []storage.Upload
}

// ListFilter narrows the unpaginated product listing. Empty slices match all.
type ListFilter struct {
	CategoryIDs        []uuid.UUID
	SubCategoryIDs     []uuid.UUID
	InnerSubCategories []string
	Limit              int
}

// AdminVariationRow is one sku of one product, flattened for the admin tables.
type AdminVariationRow struct {
	ID                 uuid.UUID        `json:"id"`
	Name               string           `json:"name"`
	Image              *string          `json:"image"`
	IsNumericVariation bool             `json:"isNumericVariation"`
	SKU                string           `json:"sku"`
	VariationName      string           `json:"variationName"`
	Quantity           *int             `json:"quantity"`
	Price              *decimal.Decimal `json:"price"`
	DiscountedPrice    *decimal.Decimal `json:"discountedPrice"`
}

// DiscountPage is one page of products carrying a discounted variation.
type DiscountPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"totalProducts"`
	TotalPages int              `json:"totalPages"`
}
