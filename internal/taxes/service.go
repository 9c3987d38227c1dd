package taxes

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// TaxInput is the full set of editable tax fields.
type TaxInput struct {
	TaxName    string
	Percentage decimal.Decimal
	IsActive   bool
}

type Service interface {
	Create(ctx context.Context, input TaxInput) (*models.Tax, error)
	Update(ctx context.Context, id uuid.UUID, input TaxInput) (*models.Tax, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Tax, error)
	Active(ctx context.Context) ([]models.Tax, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input TaxInput) (*models.Tax, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	tax := &models.Tax{TaxName: input.TaxName, Percentage: input.Percentage, IsActive: input.IsActive}
	if err := s.repo.Create(ctx, tax); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tax")
	}
	return tax, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input TaxInput) (*models.Tax, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	tax, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "tax not found", "load tax")
	}
	tax.TaxName = input.TaxName
	tax.Percentage = input.Percentage
	tax.IsActive = input.IsActive
	if err := s.repo.Save(ctx, tax); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tax")
	}
	return tax, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.FromStore(err, "tax not found", "delete tax")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Tax, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list taxes")
	}
	return rows, nil
}

func (s *service) Active(ctx context.Context) ([]models.Tax, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active taxes")
	}
	return rows, nil
}

func validate(input *TaxInput) error {
	input.TaxName = strings.TrimSpace(input.TaxName)
	if input.TaxName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "taxname is required")
	}
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}
	return nil
}

// Line computes the tax line for base: round2(base * percentage / 100).
func Line(tax models.Tax, base decimal.Decimal) models.TaxLine {
	return models.TaxLine{
		TaxID:      tax.ID,
		TaxName:    tax.TaxName,
		Percentage: tax.Percentage,
		Amount:     base.Mul(tax.Percentage).Div(decimal.NewFromInt(100)).Round(2),
	}
}
