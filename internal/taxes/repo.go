package taxes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, tax *models.Tax) error {
	return r.db.WithContext(ctx).Create(tax).Error
}

func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Tax, error) {
	var tax models.Tax
	if err := r.db.WithContext(ctx).First(&tax, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tax, nil
}

func (r *Repository) Save(ctx context.Context, tax *models.Tax) error {
	return r.db.WithContext(ctx).Save(tax).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tax{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns every tax, or only the active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Tax, error) {
	query := r.db.WithContext(ctx).Model(&models.Tax{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Tax
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
