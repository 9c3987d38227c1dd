package clients

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

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *Repository) CreateClient(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *Repository) SaveClient(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *Repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.ClientAddress, error) {
	var address models.ClientAddress
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// ListAddresses returns the addresses of email, default first.
func (r *Repository) ListAddresses(ctx context.Context, email string) ([]models.ClientAddress, error) {
	var rows []models.ClientAddress
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("is_default DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateAddress(ctx context.Context, address *models.ClientAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) SaveAddress(ctx context.Context, address *models.ClientAddress) error {
	return r.db.WithContext(ctx).Save(address).Error
}

// ClearDefault unsets is_default on every address of email except keep.
func (r *Repository) ClearDefault(ctx context.Context, email string, keep uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ClientAddress{}).
		Where("email = ? AND id <> ? AND is_default = ?", email, keep, true).
		Update("is_default", false).Error
}

// DeleteAddress removes the address only when it belongs to email.
func (r *Repository) DeleteAddress(ctx context.Context, email string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND email = ?", id, email).Delete(&models.ClientAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
