package shipping

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// TierInput is a shipping tier as submitted by an admin. A nil ID creates.
type TierInput struct {
	ID              *uuid.UUID
	Name            string
	Countries       []string
	PriceVariations []models.PriceVariation
}

type Service interface {
	List(ctx context.Context) ([]models.ShippingPrice, error)
	Save(ctx context.Context, input TierInput) (*models.ShippingPrice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Quote(ctx context.Context, country string, weight decimal.Decimal, delivery enums.DeliveryType) (decimal.Decimal, error)
}

type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping repo is required")
	}
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &service{repo: params.Repo, log: log}, nil
}

// List returns every tier. An empty table is seeded with the default tier.
func (s *service) List(ctx context.Context) ([]models.ShippingPrice, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping prices")
	}
	if len(rows) > 0 {
		return rows, nil
	}
	seed := models.DefaultShippingPrice()
	if err := s.repo.Create(ctx, &seed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed shipping prices")
	}
	s.log.Info(ctx, "shipping.seeded_default_tier")
	return []models.ShippingPrice{seed}, nil
}

func (s *service) Save(ctx context.Context, input TierInput) (*models.ShippingPrice, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	if input.ID == nil {
		row := &models.ShippingPrice{Name: input.Name, Countries: input.Countries, PriceVariations: input.PriceVariations}
		if err := s.repo.Create(ctx, row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipping price")
		}
		return row, nil
	}

	row, err := s.repo.Find(ctx, *input.ID)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "shipping price not found", "load shipping price")
	}
	row.Name = input.Name
	row.Countries = input.Countries
	row.PriceVariations = input.PriceVariations
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping price")
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.FromStore(err, "shipping price not found", "delete shipping price")
	}
	return nil
}

// Quote prices a parcel for country. The tier listing the country wins over
// the wildcard tier; within it the lightest bracket holding weight is used,
// falling back to the heaviest bracket.
func (s *service) Quote(ctx context.Context, country string, weight decimal.Decimal, delivery enums.DeliveryType) (decimal.Decimal, error) {
	tiers, err := s.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	tier := pickTier(tiers, country)
	if tier == nil || len(tier.PriceVariations) == 0 {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "no shipping price for country %q", country)
	}
	bracket := pickBracket(tier.PriceVariations, weight)
	if delivery.IsPremium() {
		return bracket.PremiumPrice, nil
	}
	return bracket.RegularPrice, nil
}

func pickTier(tiers []models.ShippingPrice, country string) *models.ShippingPrice {
	country = strings.TrimSpace(country)
	var wildcard *models.ShippingPrice
	for i := range tiers {
		for _, c := range tiers[i].Countries {
			if strings.EqualFold(c, country) {
				return &tiers[i]
			}
			if c == models.WildcardCountry && wildcard == nil {
				wildcard = &tiers[i]
			}
		}
	}
	return wildcard
}

func pickBracket(brackets []models.PriceVariation, weight decimal.Decimal) models.PriceVariation {
	sorted := make([]models.PriceVariation, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight.LessThan(sorted[j].Weight)
	})
	for _, b := range sorted {
		if b.Weight.GreaterThanOrEqual(weight) {
			return b
		}
	}
	return sorted[len(sorted)-1]
}

func validate(input *TierInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	countries := make([]string, 0, len(input.Countries))
	for _, c := range input.Countries {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	if len(countries) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "countries must not be empty")
	}
	input.Countries = countries
	if len(input.PriceVariations) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "priceVariations must not be empty")
	}
	for _, v := range input.PriceVariations {
		if v.Weight.IsNegative() || v.RegularPrice.IsNegative() || v.PremiumPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "priceVariations must not be negative")
		}
	}
	return nil
}
