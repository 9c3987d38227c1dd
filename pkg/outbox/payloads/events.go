package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once an order and its cart clearing commit.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	Username   string             `json:"username"`
	AddressID  uuid.UUID          `json:"address_id"`
	Delivery   enums.DeliveryType `json:"delivery"`
	ItemCount  int                `json:"item_count"`
	GrossTotal decimal.Decimal    `json:"gross_total"`
}

// OrderStatusChangedEvent is emitted on every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	Username string            `json:"username"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
	Tracking *string           `json:"tracking,omitempty"`
}
