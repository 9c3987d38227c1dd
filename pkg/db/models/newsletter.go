package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Newsletter struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:ux_newsletters_email" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (n *Newsletter) BeforeCreate(*gorm.DB) error {
	return ensureID(&n.ID)
}
