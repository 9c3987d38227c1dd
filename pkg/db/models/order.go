package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderItem is the frozen copy of a cart line at placement time.
type OrderItem struct {
	ItemID              uuid.UUID        `json:"itemId"`
	VariationID         string           `json:"variationId"`
	VariationName       string           `json:"variationName"`
	ItemQuantity        int              `json:"itemQuantity"`
	ItemPrice           decimal.Decimal  `json:"itemPrice"`
	ItemDiscountedPrice *decimal.Decimal `json:"itemDiscountedPrice,omitempty"`
}

// TaxLine is the applied-tax snapshot stored on an order.
type TaxLine struct {
	TaxID      uuid.UUID       `json:"taxId"`
	TaxName    string          `json:"taxname"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Order is immutable after placement except for Status, Tracking and Remark.
type Order struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username   string             `gorm:"column:username;not null;index" json:"username"`
	AddressID  uuid.UUID          `gorm:"column:address_id;type:uuid;not null" json:"address"`
	Delivery   enums.DeliveryType `gorm:"column:delivery;not null" json:"delivery"`
	OrderItems []OrderItem        `gorm:"column:order_items;type:jsonb;serializer:json;not null" json:"orderItems"`
	RawTotal   decimal.Decimal    `gorm:"column:raw_total;type:numeric(12,2);not null" json:"rawTotal"`
	Discounts  decimal.Decimal    `gorm:"column:discounts;type:numeric(12,2);not null" json:"discounts"`
	Shipping   decimal.Decimal    `gorm:"column:shipping;type:numeric(12,2);not null" json:"shipping"`
	GrossTax   decimal.Decimal    `gorm:"column:gross_tax;type:numeric(12,2);not null" json:"grossTax"`
	GrossTotal decimal.Decimal    `gorm:"column:gross_total;type:numeric(12,2);not null" json:"grossTotal"`
	Taxes      []TaxLine          `gorm:"column:taxes;type:jsonb;serializer:json;not null" json:"taxes"`
	Status     enums.OrderStatus  `gorm:"column:status;not null;default:'P'" json:"status"`
	Tracking   *string            `gorm:"column:tracking" json:"tracking"`
	Remark     *string            `gorm:"column:remark" json:"remark"`
	Date       time.Time          `gorm:"column:date;not null" json:"date"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.Date.IsZero() {
		o.Date = time.Now().UTC()
	}
	return ensureID(&o.ID)
}
