package clients

import (
	"time"

	"github.com/google/uuid"
)

// DetailsInput is the profile a client saves about themselves.
type DetailsInput struct {
	Name      string
	BirthDate *time.Time
	Gender    *string
	Phone     *string
}

// AddressInput is a shipping address. A nil ID creates a new one.
type AddressInput struct {
	ID         *uuid.UUID
	Name       string
	Address    string
	State      string
	Country    string
	Number     string
	PostalCode string
	Town       string
	IsDefault  bool
}
