package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Variation is a purchasable option of a product. Numeric products nest a
// second level in InnerVariations, each carrying its own price.
type Variation struct {
	ID              string           `json:"_id"`
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Quantity        *int             `json:"quantity,omitempty"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	InnerVariations []Variation      `json:"innerVariations,omitempty"`
}

// Specification is a display-only name/value pair.
type Specification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ImageRef points at a stored blob.
type ImageRef struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Product is the catalog listing. Price, DiscountedPrice and Cost are derived
// from Variations on every write.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string              `gorm:"column:name;not null" json:"name"`
	Description        string              `gorm:"column:description;not null;default:''" json:"description"`
	RichDescription    string              `gorm:"column:rich_description;not null;default:''" json:"richDescription"`
	ImageURL           *string             `gorm:"column:image_url" json:"image"`
	ImageKey           *string             `gorm:"column:image_key" json:"-"`
	ImageAltURL        *string             `gorm:"column:image_alt_url" json:"imageAlt"`
	ImageAltKey        *string             `gorm:"column:image_alt_key" json:"-"`
	OtherImages        []ImageRef          `gorm:"column:other_images;type:jsonb;serializer:json;not null" json:"otherImages"`
	Brand              string              `gorm:"column:brand;not null;default:''" json:"brand"`
	Type               string              `gorm:"column:type;not null;default:''" json:"type"`
	CategoryID         *uuid.UUID          `gorm:"column:category_id;type:uuid;index" json:"category"`
	SubCategoryID      *uuid.UUID          `gorm:"column:sub_category_id;type:uuid;index" json:"subCategory"`
	InnerSubCategory   *string             `gorm:"column:inner_sub_category;index" json:"innerSubCategory"`
	FilterIDs          dbtypes.IDList      `gorm:"column:filter_ids;type:jsonb;not null" json:"filterList"`
	Specifications     []Specification     `gorm:"column:specifications;type:jsonb;serializer:json;not null" json:"specifications"`
	IsNumericVariation bool                `gorm:"column:is_numeric_variation;not null" json:"isNumericVariation"`
	Variations         []Variation         `gorm:"column:variations;type:jsonb;serializer:json;not null" json:"variations"`
	Price              decimal.NullDecimal `gorm:"column:price;type:numeric(12,2);index" json:"price"`
	DiscountedPrice    decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(12,2)" json:"discountedPrice"`
	Cost               decimal.NullDecimal `gorm:"column:cost;type:numeric(12,2)" json:"cost"`
	IsFeatured         bool                `gorm:"column:is_featured;not null;default:false" json:"isFeatured"`
	PurchaseCount      int                 `gorm:"column:purchase_count;not null;default:0" json:"purchaseCount"`
	Rating             float64             `gorm:"column:rating;not null;default:0" json:"rating"`
	NumReviews         int                 `gorm:"column:num_reviews;not null;default:0" json:"numReviews"`
	DateCreated        time.Time           `gorm:"column:date_created;not null" json:"dateCreated"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.OtherImages == nil {
		p.OtherImages = []ImageRef{}
	}
	if p.FilterIDs == nil {
		p.FilterIDs = dbtypes.IDList{}
	}
	if p.Specifications == nil {
		p.Specifications = []Specification{}
	}
	if p.Variations == nil {
		p.Variations = []Variation{}
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now().UTC()
	}
	return ensureID(&p.ID)
}

// FindVariation looks up a variation by id across both levels.
func (p Product) FindVariation(id string) (Variation, bool) {
	for _, v := range p.Variations {
		if v.ID == id {
			return v, true
		}
	}
	for _, v := range p.Variations {
		for _, inner := range v.InnerVariations {
			if inner.ID == id {
				return inner, true
			}
		}
	}
	return Variation{}, false
}

// WithoutCosts copies vs with Cost cleared at every level.
func WithoutCosts(vs []Variation) []Variation {
	if vs == nil {
		return nil
	}
	out := make([]Variation, len(vs))
	for i, v := range vs {
		v.Cost = nil
		v.InnerVariations = WithoutCosts(v.InnerVariations)
		out[i] = v
	}
	return out
}

// ProductFilter mirrors Product.FilterIDs so filter intersection can run in SQL.
type ProductFilter struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	FilterID  uuid.UUID `gorm:"column:filter_id;type:uuid;primaryKey;index"`
}
