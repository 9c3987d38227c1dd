package taxonomy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Repository persists categories and subcategories.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns categories in creation order. navOnly keeps the
// show_in_nav ones.
func (r *Repository) ListCategories(ctx context.Context, navOnly bool) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if navOnly {
		query = query.Where("show_in_nav = ?", true)
	}
	var categories []models.Category
	if err := query.Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *Repository) SetSubCategoryIDs(ctx context.Context, categoryID uuid.UUID, ids dbtypes.IDList) error {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", categoryID).
		Update("subcategory_ids", ids)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindParents returns every category whose list references subID. The
// invariant keeps this at most one, but callers repair extras.
func (r *Repository) FindParents(ctx context.Context, subID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("CAST(subcategory_ids AS TEXT) LIKE ?", fmt.Sprintf("%%%s%%", subID)).
		Order("id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	parents := categories[:0]
	for _, category := range categories {
		if category.SubCategoryIDs.Contains(subID) {
			parents = append(parents, category)
		}
	}
	return parents, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreateSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) FindSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error) {
	var sub models.SubCategory
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindSubCategories loads ids and returns them in the order given. Missing
// ids are skipped.
func (r *Repository) FindSubCategories(ctx context.Context, ids []uuid.UUID) ([]models.SubCategory, error) {
	if len(ids) == 0 {
		return []models.SubCategory{}, nil
	}
	var rows []models.SubCategory
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.SubCategory, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.SubCategory, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// FindSubCategoryByInner returns the subcategory owning the inner category.
func (r *Repository) FindSubCategoryByInner(ctx context.Context, innerID uuid.UUID) (*models.SubCategory, error) {
	var rows []models.SubCategory
	err := r.db.WithContext(ctx).
		Where("CAST(inner_categories AS TEXT) LIKE ?", fmt.Sprintf("%%%s%%", innerID)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if _, ok := rows[i].InnerCategory(innerID); ok {
			return &rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Repository) ListSubCategories(ctx context.Context) ([]models.SubCategory, error) {
	var rows []models.SubCategory
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) SaveSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *Repository) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubCategory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteSubCategories(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.SubCategory{}).Error
}
