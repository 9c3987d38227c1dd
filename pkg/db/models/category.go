package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Category is a top-level catalog node. It owns the ordered list of its subcategories.
type Category struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Icon           *string        `gorm:"column:icon" json:"icon"`
	Color          *string        `gorm:"column:color" json:"color"`
	ShowInNav      bool           `gorm:"column:show_in_nav;not null" json:"showInNav"`
	ImageURL       *string        `gorm:"column:image_url" json:"image"`
	ImageKey       *string        `gorm:"column:image_key" json:"-"`
	SubCategoryIDs dbtypes.IDList `gorm:"column:subcategory_ids;type:jsonb;not null" json:"subCategories"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.SubCategoryIDs == nil {
		c.SubCategoryIDs = dbtypes.IDList{}
	}
	return ensureID(&c.ID)
}

// InnerCategory is the third taxonomy level, owned inline by its SubCategory.
type InnerCategory struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SubCategory is the second taxonomy level. At most one Category references it.
type SubCategory struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	ShowInNav       bool            `gorm:"column:show_in_nav;not null" json:"showInNav"`
	ImageURL        *string         `gorm:"column:image_url" json:"image"`
	ImageKey        *string         `gorm:"column:image_key" json:"-"`
	InnerCategories []InnerCategory `gorm:"column:inner_categories;type:jsonb;serializer:json;not null" json:"innerCategories"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *SubCategory) BeforeCreate(*gorm.DB) error {
	if s.InnerCategories == nil {
		s.InnerCategories = []InnerCategory{}
	}
	return ensureID(&s.ID)
}

// InnerCategory returns the inline entry with the given id.
func (s SubCategory) InnerCategory(id uuid.UUID) (InnerCategory, bool) {
	for _, inner := range s.InnerCategories {
		if inner.ID == id {
			return inner, true
		}
	}
	return InnerCategory{}, false
}
