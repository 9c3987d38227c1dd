package wishlist

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ProductReader loads the products wishlist entries point at.
type ProductReader interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindMany(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	ProductRepo  ProductReader
}

// Service exposes business rules for wishlist management.
type Service interface {
	Add(ctx context.Context, username string, productID uuid.UUID) (*models.WishlistItem, error)
	Remove(ctx context.Context, username string, id uuid.UUID) error
	Clear(ctx context.Context, username string) error
	ListForUser(ctx context.Context, username string) ([]ItemView, error)
	ListAll(ctx context.Context) ([]models.WishlistItem, error)
}

type service struct {
	wishlistRepo *Repository
	productRepo  ProductReader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{wishlistRepo: params.WishlistRepo, productRepo: params.ProductRepo}, nil
}

// Add ensures the product exists and records it once per user.
func (s *service) Add(ctx context.Context, username string, productID uuid.UUID) (*models.WishlistItem, error) {
	if strings.TrimSpace(username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.productRepo.Find(ctx, productID); err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	exists, err := s.wishlistRepo.Exists(ctx, username, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already in wishlist")
	}
	item := &models.WishlistItem{Username: username, ProductID: productID}
	if err := s.wishlistRepo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "ux_wishlist_items_user_product") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already in wishlist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist entry")
	}
	return item, nil
}

// Remove drops the entry regardless of prior state.
func (s *service) Remove(ctx context.Context, username string, id uuid.UUID) error {
	if err := s.wishlistRepo.Delete(ctx, username, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist entry")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, username string) error {
	if err := s.wishlistRepo.Clear(ctx, username); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, username string) ([]ItemView, error) {
	items, err := s.wishlistRepo.ListForUser(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.productRepo.FindMany(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item, byID[item.ProductID]))
	}
	return views, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.WishlistItem, error) {
	rows, err := s.wishlistRepo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlists")
	}
	return rows, nil
}
