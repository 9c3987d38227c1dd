package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Scope restricts a search to one taxonomy node.
type Scope struct {
	Kind enums.CatalogScope
	ID   uuid.UUID
}

type SearchInput struct {
	Page      int
	Sort      enums.ProductSort
	FilterIDs []uuid.UUID
	Scope     *Scope
}

type SearchResult struct {
	Products []models.Product `json:"products"`
	PageNum  int              `json:"pageNum"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	CatName  *string          `json:"catName,omitempty"`
}

var sortOrders = map[enums.ProductSort]string{
	enums.ProductSortLatest:    "id DESC",
	enums.ProductSortFeatured:  "is_featured DESC, id DESC",
	enums.ProductSortBest:      "id ASC",
	enums.ProductSortPriceHigh: "price DESC NULLS LAST, id DESC",
	enums.ProductSortPriceLow:  "price ASC NULLS LAST, id DESC",
	enums.ProductSortAtoZ:      "name ASC, id DESC",
	enums.ProductSortZtoA:      "name DESC, id DESC",
}

// OrderFor returns the ORDER BY clause for a sort key. Unknown keys sort
// newest first.
func OrderFor(key enums.ProductSort) string {
	return sortOrders[key.Normalize()]
}

func (s *service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	page := pagination.Fixed(input.Page, pagination.CatalogPageSize)
	query := searchQuery{
		filterIDs: dedupeFilterIDs(input.FilterIDs),
		order:     OrderFor(input.Sort),
		offset:    page.Offset(),
		limit:     page.Size,
	}

	var catName *string
	if input.Scope != nil && input.Scope.Kind != enums.CatalogScopeNone {
		name, err := s.scopeName(ctx, *input.Scope)
		if err != nil {
			return nil, err
		}
		catName = &name
		query.scopeColumn = scopeColumnFor(input.Scope.Kind)
		query.scopeValue = input.Scope.ID
		if input.Scope.Kind == enums.CatalogScopeInnerCategory {
			query.scopeValue = input.Scope.ID.String()
		}
	}

	rows, total, err := s.repo.search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return &SearchResult{
		Products: rows,
		PageNum:  page.TotalPages(total),
		Total:    total,
		Page:     page.Number,
		CatName:  catName,
	}, nil
}

// scopeName resolves the display name of the scope, failing NotFound when the
// node does not exist.
func (s *service) scopeName(ctx context.Context, scope Scope) (string, error) {
	switch scope.Kind {
	case enums.CatalogScopeSubCategory:
		sub, err := s.taxonomy.FindSubCategory(ctx, scope.ID)
		if err != nil {
			return "", pkgerrors.FromStore(err, "subcategory not found", "load subcategory")
		}
		return sub.Name, nil
	case enums.CatalogScopeInnerCategory:
		sub, err := s.taxonomy.FindSubCategoryByInner(ctx, scope.ID)
		if err != nil {
			return "", pkgerrors.FromStore(err, "inner subcategory not found", "load inner subcategory")
		}
		inner, ok := sub.InnerCategory(scope.ID)
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "inner subcategory not found")
		}
		return inner.Name, nil
	default:
		category, err := s.taxonomy.FindCategory(ctx, scope.ID)
		if err != nil {
			return "", pkgerrors.FromStore(err, "category not found", "load category")
		}
		return category.Name, nil
	}
}
