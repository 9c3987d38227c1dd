package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// counterColumns are maintained by order placement and reviews; product
// edits never write them back.
var counterColumns = []string{"purchase_count", "rating", "num_reviews"}

// Repository persists products and their filter join rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(counterColumns...).Save(product).Error
}

func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindMany loads ids in one query. Order is not preserved.
func (r *Repository) FindMany(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the product and its join rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductFilter{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SyncFilters replaces the join rows of productID with filterIDs.
func (r *Repository) SyncFilters(ctx context.Context, productID uuid.UUID, filterIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductFilter{}).Error; err != nil {
			return err
		}
		if len(filterIDs) == 0 {
			return nil
		}
		rows := make([]models.ProductFilter, 0, len(filterIDs))
		seen := make(map[uuid.UUID]struct{}, len(filterIDs))
		for _, id := range filterIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, models.ProductFilter{ProductID: productID, FilterID: id})
		}
		return tx.Create(&rows).Error
	})
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if len(filter.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", filter.CategoryIDs)
	}
	if len(filter.SubCategoryIDs) > 0 {
		query = query.Where("sub_category_id IN ?", filter.SubCategoryIDs)
	}
	if len(filter.InnerSubCategories) > 0 {
		query = query.Where("inner_sub_category IN ?", filter.InnerSubCategories)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.Product
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error
	return total, err
}

// Top returns up to limit products in the given order, optionally featured only.
func (r *Repository) Top(ctx context.Context, order string, featuredOnly bool, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if featuredOnly {
		query = query.Where("is_featured = ?", true)
	}
	var rows []models.Product
	if err := query.Order(order).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// WithDiscountCandidates returns products whose variations mention a
// discounted price. Callers check the values.
func (r *Repository) WithDiscountCandidates(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("CAST(variations AS TEXT) LIKE ?", "%discountedPrice%").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// searchQuery is a resolved catalog search. scopeColumn is empty for an
// unscoped search.
type searchQuery struct {
	scopeColumn string
	scopeValue  any
	filterIDs   []uuid.UUID
	order       string
	offset      int
	limit       int
}

func (r *Repository) search(ctx context.Context, q searchQuery) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{})
	if q.scopeColumn != "" {
		base = base.Where(q.scopeColumn+" = ?", q.scopeValue)
	}
	if len(q.filterIDs) > 0 {
		matching := r.db.WithContext(ctx).Model(&models.ProductFilter{}).
			Select("product_id").
			Where("filter_id IN ?", q.filterIDs).
			Group("product_id").
			Having("COUNT(DISTINCT filter_id) = ?", len(q.filterIDs))
		base = base.Where("id IN (?)", matching)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Product
	err := base.Session(&gorm.Session{}).
		Order(q.order).
		Offset(q.offset).
		Limit(q.limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func scopeColumnFor(kind enums.CatalogScope) string {
	switch kind {
	case enums.CatalogScopeSubCategory:
		return "sub_category_id"
	case enums.CatalogScopeInnerCategory:
		return "inner_sub_category"
	case enums.CatalogScopeCategory:
		return "category_id"
	}
	return ""
}

func dedupeFilterIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
