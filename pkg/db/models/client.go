package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a customer profile keyed by email.
type Client struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null;default:''" json:"name"`
	Email     string     `gorm:"column:email;not null;uniqueIndex:ux_clients_email" json:"email"`
	BirthDate *time.Time `gorm:"column:birth_date" json:"birthDate"`
	Gender    *string    `gorm:"column:gender" json:"gender"`
	Phone     *string    `gorm:"column:phone" json:"phone"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	return ensureID(&c.ID)
}

// ClientAddress is one shipping address of a client. At most one per email is default.
type ClientAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email      string    `gorm:"column:email;not null;index" json:"email"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Address    string    `gorm:"column:address;not null" json:"address"`
	State      string    `gorm:"column:state;not null;default:''" json:"state"`
	Country    string    `gorm:"column:country;not null" json:"country"`
	Number     string    `gorm:"column:number;not null;default:''" json:"number"`
	PostalCode string    `gorm:"column:postal_code;not null;default:''" json:"postalCode"`
	Town       string    `gorm:"column:town;not null;default:''" json:"town"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *ClientAddress) BeforeCreate(*gorm.DB) error {
	return ensureID(&a.ID)
}
