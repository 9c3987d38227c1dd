package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tax is a percentage applied to the discounted subtotal of every order while active.
type Tax struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TaxName    string          `gorm:"column:taxname;not null" json:"taxname"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(6,3);not null" json:"percentage"`
	IsActive   bool            `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (t *Tax) BeforeCreate(*gorm.DB) error {
	return ensureID(&t.ID)
}
