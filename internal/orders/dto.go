package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// PlaceInput carries what the buyer chooses at checkout. The cart supplies
// the items.
type PlaceInput struct {
	AddressID   uuid.UUID
	Delivery    enums.DeliveryType
	TotalWeight decimal.Decimal
}

// StatusInput moves an order along its lifecycle. A nil Status only updates
// tracking and remark.
type StatusInput struct {
	Status   *enums.OrderStatus
	Tracking *string
	Remark   *string
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	Username string
	IsAdmin  bool
}

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"totalPages"`
}

// Totals is the money breakdown of an order.
type Totals struct {
	RawTotal   decimal.Decimal
	Discounts  decimal.Decimal
	Shipping   decimal.Decimal
	GrossTax   decimal.Decimal
	GrossTotal decimal.Decimal
	Taxes      []models.TaxLine
}
