package filters

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

const cardFilterLimit = 4

// Repository persists filters and filter groups.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateFilter(ctx context.Context, filter *models.Filter) error {
	return r.db.WithContext(ctx).Create(filter).Error
}

func (r *Repository) FindFilter(ctx context.Context, id uuid.UUID) (*models.Filter, error) {
	var filter models.Filter
	if err := r.db.WithContext(ctx).First(&filter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &filter, nil
}

// FindFilters returns the filters with the given ids, in the order given.
func (r *Repository) FindFilters(ctx context.Context, ids []uuid.UUID) ([]models.Filter, error) {
	if len(ids) == 0 {
		return []models.Filter{}, nil
	}
	var rows []models.Filter
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Filter, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.Filter, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

func (r *Repository) ListFilters(ctx context.Context) ([]models.Filter, error) {
	var rows []models.Filter
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListCardFilters(ctx context.Context) ([]models.Filter, error) {
	var rows []models.Filter
	err := r.db.WithContext(ctx).
		Where("show_as_card = ?", true).
		Order("id ASC").
		Limit(cardFilterLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListUnassignedFilters(ctx context.Context) ([]models.Filter, error) {
	var rows []models.Filter
	if err := r.db.WithContext(ctx).Where("filter_group_id IS NULL").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) SaveFilter(ctx context.Context, filter *models.Filter) error {
	return r.db.WithContext(ctx).Save(filter).Error
}

func (r *Repository) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Filter{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetGroup points every filter in ids at groupID. A nil groupID clears the
// back-reference.
func (r *Repository) SetGroup(ctx context.Context, ids []uuid.UUID, groupID *uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var value any = gorm.Expr("NULL")
	if groupID != nil {
		value = *groupID
	}
	return r.db.WithContext(ctx).
		Model(&models.Filter{}).
		Where("id IN ?", ids).
		Update("filter_group_id", value).Error
}

// ClearGroup unsets the back-reference on every filter pointing at groupID.
func (r *Repository) ClearGroup(ctx context.Context, groupID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Filter{}).
		Where("filter_group_id = ?", groupID).
		Update("filter_group_id", gorm.Expr("NULL")).Error
}

func (r *Repository) CreateGroup(ctx context.Context, group *models.FilterGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *Repository) FindGroup(ctx context.Context, id uuid.UUID) (*models.FilterGroup, error) {
	var group models.FilterGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]models.FilterGroup, error) {
	var rows []models.FilterGroup
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) SaveGroup(ctx context.Context, group *models.FilterGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *Repository) SetGroupFilterIDs(ctx context.Context, groupID uuid.UUID, ids dbtypes.IDList) error {
	res := r.db.WithContext(ctx).
		Model(&models.FilterGroup{}).
		Where("id = ?", groupID).
		Update("filter_ids", ids)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FilterGroup{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
