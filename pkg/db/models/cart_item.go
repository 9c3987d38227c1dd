package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariationSnapshot is the point-in-time copy of a variation taken when a line is added.
type VariationSnapshot struct {
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Quantity        *int             `json:"quantity"`
	Cost            *decimal.Decimal `json:"cost"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
}

// CartItem is one (user, product, variation) line in a cart.
type CartItem struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username         string            `gorm:"column:username;not null;index;uniqueIndex:ux_cart_items_line" json:"username"`
	ProductID        uuid.UUID         `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_line" json:"product"`
	VariationID      string            `gorm:"column:variation_id;not null;uniqueIndex:ux_cart_items_line" json:"variationId"`
	Quantity         int               `gorm:"column:quantity;not null" json:"quantity"`
	VariationDetails VariationSnapshot `gorm:"column:variation_details;type:jsonb;serializer:json;not null" json:"variationDetails"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	return ensureID(&c.ID)
}
