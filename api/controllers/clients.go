package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/clients"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Client records are keyed by the caller's email, which is their username.
// An email sent in the body is ignored.

type clientDetailsRequest struct {
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birthDate"`
	Gender    *string    `json:"gender"`
	Phone     *string    `json:"phone"`
}

type clientAddressRequest struct {
	ID         *uuid.UUID `json:"_id"`
	Name       string     `json:"name" validate:"required"`
	Address    string     `json:"address" validate:"required"`
	State      string     `json:"state"`
	Country    string     `json:"country" validate:"required"`
	Number     string     `json:"number"`
	PostalCode string     `json:"postalCode"`
	Town       string     `json:"town"`
	IsDefault  bool       `json:"isDefault"`
}

type deleteAddressRequest struct {
	AddressID uuid.UUID `json:"addressId" validate:"required"`
}

func ClientSaveDetails(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req clientDetailsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		client, err := svc.SaveDetails(ctx, email, clients.DetailsInput{
			Name:      req.Name,
			BirthDate: req.BirthDate,
			Gender:    req.Gender,
			Phone:     req.Phone,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientFindDetails(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		client, err := svc.FindDetails(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientSaveAddress(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req clientAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		address, err := svc.SaveAddress(ctx, email, clients.AddressInput{
			ID:         req.ID,
			Name:       req.Name,
			Address:    req.Address,
			State:      req.State,
			Country:    req.Country,
			Number:     req.Number,
			PostalCode: req.PostalCode,
			Town:       req.Town,
			IsDefault:  req.IsDefault,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}

func ClientFindAddresses(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rows, err := svc.FindAddresses(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ClientDeleteAddress(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req deleteAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteAddress(ctx, email, req.AddressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(req.AddressID))
	}
}
