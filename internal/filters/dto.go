package filters

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type CreateFilterInput struct {
	Name       string
	ShowAsCard *bool
	TagLine    *string
}

// FilterPatch carries the fields to change; nil leaves a field untouched.
type FilterPatch struct {
	Name       *string
	ShowAsCard *bool
	TagLine    *string
}

type CreateGroupInput struct {
	Name      string
	FilterIDs []uuid.UUID
}

// EditGroupInput replaces the group's membership with FilterIDs. A nil Name
// keeps the current one.
type EditGroupInput struct {
	Name      *string
	FilterIDs []uuid.UUID
}

// GroupView is a filter group with its filters loaded in list order.
type GroupView struct {
	models.FilterGroup
	Filters []models.Filter `json:"filters"`
}
