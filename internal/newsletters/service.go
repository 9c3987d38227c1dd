package newsletters

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type Service interface {
	Subscribe(ctx context.Context, email string) (*models.Newsletter, error)
	List(ctx context.Context) ([]models.Newsletter, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	validate *validator.Validate
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "newsletter repo is required")
	}
	return &service{repo: repo, validate: validator.New()}, nil
}

func (s *service) Subscribe(ctx context.Context, email string) (*models.Newsletter, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	exists, err := s.repo.Exists(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subscription")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already subscribed")
	}

	row := &models.Newsletter{Email: email}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "ux_newsletters_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already subscribed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe")
	}
	return row, nil
}

func (s *service) List(ctx context.Context) ([]models.Newsletter, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.FromStore(err, "subscription not found", "delete subscription")
	}
	return nil
}
