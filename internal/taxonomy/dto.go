package taxonomy

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type CreateCategoryInput struct {
	Name      string
	ShowInNav *bool
	Icon      *string
	Color     *string
}

type CreateSubCategoryInput struct {
	Name            string
	ShowInNav       *bool
	InnerCategories []string
	CategoryID      *uuid.UUID
}

// CategoryPatch carries the fields to change; nil leaves a field untouched.
type CategoryPatch struct {
	Name      *string
	ShowInNav *bool
	Icon      *string
	Color     *string
}

// SubCategoryPatch carries the fields to change. A non-nil CategoryID moves
// the subcategory under that category.
type SubCategoryPatch struct {
	Name       *string
	ShowInNav  *bool
	CategoryID *uuid.UUID
}

// CategoryView is a category with its subcategories loaded in list order.
type CategoryView struct {
	models.Category
	SubCategories []models.SubCategory `json:"subCategories"`
}
