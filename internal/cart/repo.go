package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists cart line items. Every user-facing query is scoped by
// username.
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

func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) Exists(ctx context.Context, username string, productID uuid.UUID, variationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("username = ? AND product_id = ? AND variation_id = ?", username, productID, variationID).
		Count(&count).Error
	return count > 0, err
}

// UpdateQuantity changes one line owned by username. It reports whether a
// row matched.
func (r *Repository) UpdateQuantity(ctx context.Context, username string, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND username = ?", id, username).
		Update("quantity", quantity)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, username string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND username = ?", id, username).
		Delete(&models.CartItem{}).Error
}

func (r *Repository) Clear(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&models.CartItem{}).Error
}

func (r *Repository) ListForUser(ctx context.Context, username string) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]models.CartItem, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
