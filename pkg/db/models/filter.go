package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Filter is a facet products can be tagged with. FilterGroupID mirrors the
// owning group's FilterIDs list.
type Filter struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	ShowAsCard    bool       `gorm:"column:show_as_card;not null;default:false" json:"showAsCard"`
	TagLine       *string    `gorm:"column:tag_line" json:"tagLine"`
	ImageURL      *string    `gorm:"column:image_url" json:"image"`
	ImageKey      *string    `gorm:"column:image_key" json:"-"`
	FilterGroupID *uuid.UUID `gorm:"column:filter_group_id;type:uuid;index" json:"filterGroup"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (f *Filter) BeforeCreate(*gorm.DB) error {
	return ensureID(&f.ID)
}

// FilterGroup owns an ordered list of filters.
type FilterGroup struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	FilterIDs dbtypes.IDList `gorm:"column:filter_ids;type:jsonb;not null" json:"filters"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (g *FilterGroup) BeforeCreate(*gorm.DB) error {
	if g.FilterIDs == nil {
		g.FilterIDs = dbtypes.IDList{}
	}
	return ensureID(&g.ID)
}
