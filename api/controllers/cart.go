package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type addCartItemRequest struct {
	Product   uuid.UUID `json:"product" validate:"required"`
	Variation string    `json:"variation" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

type removeCartItemRequest struct {
	CartID uuid.UUID `json:"cartId" validate:"required"`
}

func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, err := svc.Add(ctx, username, cart.AddInput{
			ProductID:   req.Product,
			VariationID: req.Variation,
			Quantity:    req.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		shown := *item
		shown.VariationDetails.Cost = nil
		responses.WriteSuccessStatus(w, http.StatusCreated, shown)
	}
}

// CartUpdate sets quantities for a list of the caller's lines.
func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var patches []cart.QuantityPatch
		if err := validators.DecodeJSONBody(r, &patches); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.BulkUpdateQuantity(ctx, username, patches); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"updated": len(patches)})
	}
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req removeCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Remove(ctx, username, req.CartID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(req.CartID))
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Clear(ctx, username); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

func CartFind(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username, err := callerUsername(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lines, err := svc.ListForUser(ctx, username)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

func CartListAll(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
