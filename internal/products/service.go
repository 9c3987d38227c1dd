package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/angelmondragon/storefront-backend/pkg/workflow"
)

const (
	productImagePrefix = "products"
	placeholderName    = "TEMP"
	defaultTopLimit    = 10
)

// TaxonomyReader is the slice of the taxonomy store products depend on.
type TaxonomyReader interface {
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindSubCategory(ctx context.Context, id uuid.UUID) (*models.SubCategory, error)
	FindSubCategoryByInner(ctx context.Context, innerID uuid.UUID) (*models.SubCategory, error)
	FindParents(ctx context.Context, subID uuid.UUID) ([]models.Category, error)
}

type ServiceParams struct {
	Repo     *Repository
	Taxonomy TaxonomyReader
	Storage  storage.Store
	Logger   *logger.Logger
}

// Service manages the product catalog.
type Service interface {
	Create(ctx context.Context, input ProductInput, images ProductImages) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput, images ProductImages) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	BestSellers(ctx context.Context, limit int) ([]models.Product, error)
	WithDiscount(ctx context.Context, page, limit int) (*DiscountPage, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	Crumbs(ctx context.Context, input CrumbsInput) (*Crumbs, error)

	ForAdmin(ctx context.Context) ([]AdminVariationRow, error)
	LatestForAdmin(ctx context.Context, limit int) ([]AdminVariationRow, error)
	TotalCost(ctx context.Context) (decimal.Decimal, error)
}

type service struct {
	repo     *Repository
	taxonomy TaxonomyReader
	store    storage.Store
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.Taxonomy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "taxonomy reader is required")
	}
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blob storage is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, taxonomy: params.Taxonomy, store: params.Storage, logg: logg}, nil
}

// Create validates the payload, writes a placeholder to obtain an id, stores
// the images under it and then fills in the record. A failure removes every
// uploaded blob and the placeholder.
func (s *service) Create(ctx context.Context, input ProductInput, images ProductImages) (*models.Product, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	product := &models.Product{Name: placeholderName, Description: placeholderName}
	uploaded := &uploadSet{}

	err := workflow.Run(ctx,
		workflow.Step{
			Name: "placeholder",
			Do:   func(ctx context.Context) error { return s.repo.Create(ctx, product) },
			Undo: func(ctx context.Context) error { return s.repo.Delete(ctx, product.ID) },
		},
		workflow.Step{
			Name: "upload images",
			Do: func(ctx context.Context) error {
				if err := s.upload(ctx, product.ID, images, uploaded); err != nil {
					s.dropBlobs(ctx, uploaded.keys()...)
					return err
				}
				return nil
			},
			Undo: func(ctx context.Context) error { return storage.DeleteAll(ctx, s.store, uploaded.keys()...) },
		},
		workflow.Step{
			Name: "fill record",
			Do: func(ctx context.Context) error {
				applyInput(product, input)
				uploaded.apply(product, nil)
				return s.repo.Save(ctx, product)
			},
		},
		workflow.Step{
			Name: "sync filters",
			Do:   func(ctx context.Context) error { return s.repo.SyncFilters(ctx, product.ID, product.FilterIDs) },
		},
	)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "product_id", product.ID.String()), "product create rolled back", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, workflow.Cause(err), "the product cannot be created")
	}
	return product, nil
}

// Update rewrites the product from the payload. New images replace the old
// ones; superseded blobs are deleted after the record is saved.
// OtherImages becomes the new uploads plus the existing images named in
// OtherExistingImages; when both are empty the gallery is left unchanged.
func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput, images ProductImages) (*models.Product, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	uploaded := &uploadSet{}
	if err := s.upload(ctx, product.ID, images, uploaded); err != nil {
		s.dropBlobs(ctx, uploaded.keys()...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "the product cannot be updated")
	}

	superseded := supersededKeys(product, uploaded, input.OtherExistingImages)
	applyInput(product, input)
	uploaded.apply(product, input.OtherExistingImages)

	if err := s.repo.Save(ctx, product); err != nil {
		s.dropBlobs(ctx, uploaded.keys()...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "the product cannot be updated")
	}
	if err := s.repo.SyncFilters(ctx, product.ID, product.FilterIDs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync product filters")
	}
	s.dropBlobs(ctx, superseded...)
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return pkgerrors.FromStore(err, "product not found", "load product")
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return pkgerrors.FromStore(err, "product not found", "delete product")
	}
	s.dropBlobs(ctx, imageKeys(product)...)
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "product not found", "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	return total, nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	rows, err := s.repo.Top(ctx, "id DESC", true, topLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return rows, nil
}

func (s *service) BestSellers(ctx context.Context, limit int) ([]models.Product, error) {
	rows, err := s.repo.Top(ctx, "purchase_count DESC, id DESC", false, topLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list best sellers")
	}
	return rows, nil
}

// WithDiscount pages through products that have at least one top-level
// variation with a positive discounted price. Each product carries only those
// variations.
func (s *service) WithDiscount(ctx context.Context, page, limit int) (*DiscountPage, error) {
	if page < 1 || limit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page and limit must be positive integers")
	}
	candidates, err := s.repo.WithDiscountCandidates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounted products")
	}
	matched := make([]models.Product, 0, len(candidates))
	for _, product := range candidates {
		discounted := make([]models.Variation, 0, len(product.Variations))
		for _, variation := range product.Variations {
			if variation.DiscountedPrice != nil && variation.DiscountedPrice.IsPositive() {
				discounted = append(discounted, variation)
			}
		}
		if len(discounted) == 0 {
			continue
		}
		product.Variations = discounted
		matched = append(matched, product)
	}

	window := pagination.Fixed(page, limit)
	total := int64(len(matched))
	start := window.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + window.Size
	if end > len(matched) {
		end = len(matched)
	}
	return &DiscountPage{
		Products:   matched[start:end],
		Page:       window.Number,
		Limit:      window.Size,
		Total:      total,
		TotalPages: window.TotalPages(total),
	}, nil
}

func (s *service) ForAdmin(ctx context.Context) ([]AdminVariationRow, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return flattenBySKU(rows), nil
}

func (s *service) LatestForAdmin(ctx context.Context, limit int) ([]AdminVariationRow, error) {
	rows, err := s.repo.Top(ctx, "id DESC", false, topLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list latest products")
	}
	return flattenBySKU(rows), nil
}

// TotalCost sums cost times quantity over every variation and inner
// variation. Missing values count as zero.
func (s *service) TotalCost(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	total := decimal.Zero
	var add func(vs []models.Variation)
	add = func(vs []models.Variation) {
		for _, v := range vs {
			if v.Cost != nil && v.Quantity != nil {
				total = total.Add(v.Cost.Mul(decimal.NewFromInt(int64(*v.Quantity))))
			}
			add(v.InnerVariations)
		}
	}
	for _, product := range rows {
		add(product.Variations)
	}
	return total, nil
}

// validate checks the taxonomy references and normalizes the payload.
func (s *service) validate(ctx context.Context, input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Variations) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variations must be a non-empty array")
	}
	if len(input.Specifications) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "specifications must be a non-empty array")
	}
	if _, err := s.taxonomy.FindCategory(ctx, input.CategoryID); err != nil {
		return invalidReference(err)
	}
	if _, err := s.taxonomy.FindSubCategory(ctx, input.SubCategoryID); err != nil {
		return invalidReference(err)
	}
	AssignVariationIDs(input.Variations)
	input.FilterIDs = dedupeFilterIDs(input.FilterIDs)
	return nil
}

func invalidReference(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category/subcategory")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load taxonomy")
}

func applyInput(product *models.Product, input ProductInput) {
	product.Name = input.Name
	product.Type = input.Type
	product.Description = input.Description
	product.RichDescription = input.RichDescription
	product.Brand = input.Brand
	categoryID, subCategoryID := input.CategoryID, input.SubCategoryID
	product.CategoryID = &categoryID
	product.SubCategoryID = &subCategoryID
	product.InnerSubCategory = input.InnerSubCategory
	product.IsNumericVariation = input.IsNumericVariation
	product.IsFeatured = input.IsFeatured
	product.Variations = input.Variations
	product.Specifications = input.Specifications
	product.FilterIDs = dbtypes.IDList(input.FilterIDs)
	ResolvePricing(input.Variations, input.IsNumericVariation).Apply(product)
}

func (s *service) dropBlobs(ctx context.Context, keys ...string) {
	err := storage.DeleteAll(ctx, s.store, keys...)
	for _, failure := range multierr.Errors(err) {
		s.logg.WarnErr(ctx, "blob delete failed", failure)
	}
}

func topLimit(limit int) int {
	if limit <= 0 {
		return defaultTopLimit
	}
	return pagination.NormalizeLimit(limit)
}

func flattenBySKU(rows []models.Product) []AdminVariationRow {
	out := make([]AdminVariationRow, 0, len(rows))
	var walk func(product models.Product, vs []models.Variation)
	walk = func(product models.Product, vs []models.Variation) {
		for _, v := range vs {
			if v.SKU != "" {
				out = append(out, AdminVariationRow{
					ID:                 product.ID,
					Name:               product.Name,
					Image:              product.ImageURL,
					IsNumericVariation: product.IsNumericVariation,
					SKU:                v.SKU,
					VariationName:      v.Name,
					Quantity:           v.Quantity,
					Price:              v.Price,
					DiscountedPrice:    v.DiscountedPrice,
				})
			}
			walk(product, v.InnerVariations)
		}
	}
	for _, product := range rows {
		walk(product, product.Variations)
	}
	return out
}

// HideCosts clears purchase costs from products shown to shoppers.
func HideCosts(rows ...*models.Product) {
	for _, product := range rows {
		product.Cost = decimal.NullDecimal{}
		product.Variations = models.WithoutCosts(product.Variations)
	}
}
