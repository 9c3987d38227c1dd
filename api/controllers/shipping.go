package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// shippingTierRequest upserts a tier; a missing _id creates one.
type shippingTierRequest struct {
	ID              *uuid.UUID              `json:"_id"`
	Name            string                  `json:"name" validate:"required"`
	Countries       []string                `json:"countries" validate:"required,min=1"`
	PriceVariations []models.PriceVariation `json:"priceVariations" validate:"required,min=1"`
}

type shippingDeleteRequest struct {
	ID uuid.UUID `json:"_id" validate:"required"`
}

// ShippingPrices lists every tier, seeding the default tier on first use.
func ShippingPrices(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ShippingSave(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shippingTierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := svc.Save(r.Context(), shipping.TierInput{
			ID:              req.ID,
			Name:            req.Name,
			Countries:       req.Countries,
			PriceVariations: req.PriceVariations,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tier)
	}
}

func ShippingDelete(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shippingDeleteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), req.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(req.ID))
	}
}
