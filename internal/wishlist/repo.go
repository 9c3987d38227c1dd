package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) Exists(ctx context.Context, username string, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("username = ? AND product_id = ?", username, productID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the entry if it belongs to username.
func (r *Repository) Delete(ctx context.Context, username string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND username = ?", id, username).
		Delete(&models.WishlistItem{}).
		Error
}

func (r *Repository) Clear(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&models.WishlistItem{}).
		Error
}

func (r *Repository) ListForUser(ctx context.Context, username string) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	if err := r.db.WithContext(ctx).Where("username = ?", username).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
