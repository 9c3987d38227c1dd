package clients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	SaveDetails(ctx context.Context, email string, input DetailsInput) (*models.Client, error)
	FindDetails(ctx context.Context, email string) (*models.Client, error)
	SaveAddress(ctx context.Context, email string, input AddressInput) (*models.ClientAddress, error)
	FindAddresses(ctx context.Context, email string) ([]models.ClientAddress, error)
	FindAddress(ctx context.Context, email string, id uuid.UUID) (*models.ClientAddress, error)
	DeleteAddress(ctx context.Context, email string, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client repo is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// SaveDetails creates or updates the profile keyed by email.
func (s *service) SaveDetails(ctx context.Context, email string, input DetailsInput) (*models.Client, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		client = &models.Client{Email: email}
		applyDetails(client, input)
		if err := s.repo.CreateClient(ctx, client); err != nil {
			if db.IsUniqueViolation(err, "ux_clients_email") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "client details already exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
		}
		return client, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	applyDetails(client, input)
	if err := s.repo.SaveClient(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	return client, nil
}

func (s *service) FindDetails(ctx context.Context, email string) (*models.Client, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "client details not found", "load client")
	}
	return client, nil
}

// SaveAddress upserts by id. Marking an address default clears the flag on
// the client's other addresses in the same transaction.
func (s *service) SaveAddress(ctx context.Context, email string, input AddressInput) (*models.ClientAddress, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validateAddress(&input); err != nil {
		return nil, err
	}

	var saved *models.ClientAddress
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		address := &models.ClientAddress{Email: email}
		if input.ID != nil {
			existing, err := repo.FindAddress(ctx, *input.ID)
			if err != nil {
				return pkgerrors.FromStore(err, "address not found", "load address")
			}
			if existing.Email != email {
				return pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another client")
			}
			address = existing
		}
		applyAddress(address, input)

		if input.ID == nil {
			if err := repo.CreateAddress(ctx, address); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
			}
		} else if err := repo.SaveAddress(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}

		if address.IsDefault {
			if err := repo.ClearDefault(ctx, email, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		saved = address
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return saved, nil
}

func (s *service) FindAddresses(ctx context.Context, email string) ([]models.ClientAddress, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAddresses(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

// FindAddress loads one address and checks it belongs to email.
func (s *service) FindAddress(ctx context.Context, email string, id uuid.UUID) (*models.ClientAddress, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	address, err := s.repo.FindAddress(ctx, id)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "address not found", "load address")
	}
	if address.Email != email {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another client")
	}
	return address, nil
}

func (s *service) DeleteAddress(ctx context.Context, email string, id uuid.UUID) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAddress(ctx, email, id); err != nil {
		return pkgerrors.FromStore(err, "address not found", "delete address")
	}
	return nil
}

func requireEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	return email, nil
}

func applyDetails(client *models.Client, input DetailsInput) {
	client.Name = strings.TrimSpace(input.Name)
	client.BirthDate = input.BirthDate
	client.Gender = input.Gender
	client.Phone = input.Phone
}

func validateAddress(input *AddressInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	input.Country = strings.TrimSpace(input.Country)
	switch {
	case input.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.Address == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	case input.Country == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	}
	return nil
}

func applyAddress(address *models.ClientAddress, input AddressInput) {
	address.Name = input.Name
	address.Address = input.Address
	address.State = strings.TrimSpace(input.State)
	address.Country = input.Country
	address.Number = strings.TrimSpace(input.Number)
	address.PostalCode = strings.TrimSpace(input.PostalCode)
	address.Town = strings.TrimSpace(input.Town)
	address.IsDefault = input.IsDefault
}
