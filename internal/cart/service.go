package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ProductReader loads the products cart lines point at.
type ProductReader interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindMany(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type ServiceParams struct {
	Repo     *Repository
	Products ProductReader
	Logger   *logger.Logger
}

// Service manages shopping cart lines. The username argument is always the
// caller identity resolved by the transport.
type Service interface {
	Add(ctx context.Context, username string, input AddInput) (*models.CartItem, error)
	BulkUpdateQuantity(ctx context.Context, username string, patches []QuantityPatch) error
	Remove(ctx context.Context, username string, id uuid.UUID) error
	Clear(ctx context.Context, username string) error
	ListForUser(ctx context.Context, username string) ([]LineView, error)
	ListAll(ctx context.Context) ([]models.CartItem, error)
}

type service struct {
	repo     *Repository
	products ProductReader
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product reader is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, products: params.Products, logg: logg}, nil
}

// Add snapshots the chosen variation into a new line. A second line for the
// same product and variation is a conflict.
func (s *service) Add(ctx context.Context, username string, input AddInput) (*models.CartItem, error) {
	if strings.TrimSpace(username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.products.Find(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	variation, ok := product.FindVariation(input.VariationID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variation not found")
	}

	exists, err := s.repo.Exists(ctx, username, product.ID, variation.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cart")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already in cart")
	}

	item := &models.CartItem{
		Username:    username,
		ProductID:   product.ID,
		VariationID: variation.ID,
		Quantity:    input.Quantity,
		VariationDetails: models.VariationSnapshot{
			SKU:             variation.SKU,
			Name:            variation.Name,
			Quantity:        variation.Quantity,
			Cost:            variation.Cost,
			Price:           variation.Price,
			DiscountedPrice: variation.DiscountedPrice,
		},
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "ux_cart_items_line") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	return item, nil
}

// BulkUpdateQuantity applies each patch on its own. Lines that do not exist
// or belong to someone else are skipped.
func (s *service) BulkUpdateQuantity(ctx context.Context, username string, patches []QuantityPatch) error {
	for _, patch := range patches {
		if patch.Quantity < 1 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for %s must be at least 1", patch.ID)
		}
	}
	for _, patch := range patches {
		matched, err := s.repo.UpdateQuantity(ctx, username, patch.ID, patch.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		if !matched {
			s.logg.Debug(s.logg.WithField(ctx, "cart_item_id", patch.ID.String()), "cart patch matched no line")
		}
	}
	return nil
}

func (s *service) Remove(ctx context.Context, username string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, username, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, username string) error {
	if err := s.repo.Clear(ctx, username); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, username string) ([]LineView, error) {
	items, err := s.repo.ListForUser(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindMany(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	views := make([]LineView, 0, len(items))
	for _, item := range items {
		view := LineView{CartItem: item}
		view.VariationDetails.Cost = nil
		if product, ok := byID[item.ProductID]; ok {
			view.Product = summarize(product)
			view.StockSize = item.VariationDetails.Quantity
			view.Price = item.VariationDetails.Price
			view.DiscountedPrice = item.VariationDetails.DiscountedPrice
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.CartItem, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carts")
	}
	return rows, nil
}
