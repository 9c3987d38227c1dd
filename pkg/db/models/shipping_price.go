package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceVariation is one weight bracket of a shipping tier.
type PriceVariation struct {
	Weight       decimal.Decimal `json:"weight"`
	RegularPrice decimal.Decimal `json:"regularPrice"`
	PremiumPrice decimal.Decimal `json:"premiumPrice"`
}

// ShippingPrice is a tier of countries sharing weight-bracketed prices. The
// country "*" matches any destination.
type ShippingPrice struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string           `gorm:"column:name;not null" json:"name"`
	Countries       []string         `gorm:"column:countries;type:jsonb;serializer:json;not null" json:"countries"`
	PriceVariations []PriceVariation `gorm:"column:price_variations;type:jsonb;serializer:json;not null" json:"priceVariations"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *ShippingPrice) BeforeCreate(*gorm.DB) error {
	return ensureID(&s.ID)
}

// WildcardCountry matches any destination country.
const WildcardCountry = "*"

// DefaultShippingPrice is the fallback tier seeded into an empty table.
func DefaultShippingPrice() ShippingPrice {
	return ShippingPrice{
		Name:      "Rest of the World",
		Countries: []string{WildcardCountry},
		PriceVariations: []PriceVariation{
			{
				Weight:       decimal.RequireFromString("0.5"),
				RegularPrice: decimal.RequireFromString("39.99"),
				PremiumPrice: decimal.RequireFromString("42.99"),
			},
			{
				Weight:       decimal.NewFromInt(30),
				RegularPrice: decimal.RequireFromString("113.99"),
				PremiumPrice: decimal.RequireFromString("133.99"),
			},
		},
	}
}
