package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Crumb is one resolved breadcrumb level.
type Crumb struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Crumbs struct {
	Category      *Crumb `json:"cat"`
	SubCategory   *Crumb `json:"subcat"`
	InnerCategory *Crumb `json:"incat"`
	Product       *Crumb `json:"product"`
}

// CrumbsInput selects a product, or a taxonomy node when ProductID is nil.
type CrumbsInput struct {
	ProductID *uuid.UUID
	Kind      enums.CatalogScope
	ScopeID   uuid.UUID
}

// Crumbs resolves the breadcrumb trail. Levels that cannot be resolved are
// left nil; lookups never fail the call.
func (s *service) Crumbs(ctx context.Context, input CrumbsInput) (*Crumbs, error) {
	out := &Crumbs{}
	if input.ProductID != nil {
		product, err := s.repo.Find(ctx, *input.ProductID)
		if err != nil {
			return out, nil
		}
		out.Product = &Crumb{ID: product.ID, Name: product.Name}
		if product.CategoryID != nil {
			if category, err := s.taxonomy.FindCategory(ctx, *product.CategoryID); err == nil {
				out.Category = categoryCrumb(category)
			}
		}
		if product.SubCategoryID != nil {
			if sub, err := s.taxonomy.FindSubCategory(ctx, *product.SubCategoryID); err == nil {
				out.SubCategory = &Crumb{ID: sub.ID, Name: sub.Name}
				if product.InnerSubCategory != nil {
					if innerID, err := uuid.Parse(*product.InnerSubCategory); err == nil {
						if inner, ok := sub.InnerCategory(innerID); ok {
							out.InnerCategory = &Crumb{ID: inner.ID, Name: inner.Name}
						}
					}
				}
			}
		}
		return out, nil
	}

	switch input.Kind {
	case enums.CatalogScopeSubCategory:
		sub, err := s.taxonomy.FindSubCategory(ctx, input.ScopeID)
		if err != nil {
			return out, nil
		}
		out.SubCategory = &Crumb{ID: sub.ID, Name: sub.Name}
		out.Category = s.parentCrumb(ctx, sub.ID)
	case enums.CatalogScopeInnerCategory:
		sub, err := s.taxonomy.FindSubCategoryByInner(ctx, input.ScopeID)
		if err != nil {
			return out, nil
		}
		out.SubCategory = &Crumb{ID: sub.ID, Name: sub.Name}
		if inner, ok := sub.InnerCategory(input.ScopeID); ok {
			out.InnerCategory = &Crumb{ID: inner.ID, Name: inner.Name}
		}
		out.Category = s.parentCrumb(ctx, sub.ID)
	default:
		if category, err := s.taxonomy.FindCategory(ctx, input.ScopeID); err == nil {
			out.Category = categoryCrumb(category)
		}
	}
	return out, nil
}

func (s *service) parentCrumb(ctx context.Context, subID uuid.UUID) *Crumb {
	parents, err := s.taxonomy.FindParents(ctx, subID)
	if err != nil || len(parents) == 0 {
		return nil
	}
	return categoryCrumb(&parents[0])
}

func categoryCrumb(category *models.Category) *Crumb {
	return &Crumb{ID: category.ID, Name: category.Name}
}
