package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/filters"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createFilterGroupRequest struct {
	Name    string      `json:"name" validate:"required"`
	Filters []uuid.UUID `json:"filters"`
}

type editFilterGroupRequest struct {
	GroupID     uuid.UUID `json:"groupId" validate:"required"`
	UpdatedData struct {
		Name    *string     `json:"name"`
		Filters []uuid.UUID `json:"filters"`
	} `json:"updatedData"`
}

type deleteFilterRequest struct {
	IsFilter bool       `json:"isFilter"`
	FilterID *uuid.UUID `json:"filterId"`
	GroupID  *uuid.UUID `json:"groupId"`
}

func filterList(load func(r *http.Request) (any, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := load(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func FilterGroups(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return filterList(func(r *http.Request) (any, error) { return svc.FilterGroups(r.Context()) }, logg)
}

func FilterAll(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return filterList(func(r *http.Request) (any, error) { return svc.AllFilters(r.Context()) }, logg)
}

func FilterCards(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return filterList(func(r *http.Request) (any, error) { return svc.CardFilters(r.Context()) }, logg)
}

func FilterUnassigned(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return filterList(func(r *http.Request) (any, error) { return svc.UnassignedFilters(r.Context()) }, logg)
}

func FilterGroupCreate(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFilterGroupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := svc.CreateFilterGroup(r.Context(), filters.CreateGroupInput{Name: req.Name, FilterIDs: req.Filters})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

func FilterGroupEdit(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editFilterGroupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := svc.EditFilterGroup(r.Context(), req.GroupID, filters.EditGroupInput{
			Name:      req.UpdatedData.Name,
			FilterIDs: req.UpdatedData.Filters,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

// FilterCreate accepts a multipart form with name, showAsCard, tagLine and an
// optional image.
func FilterCreate(svc filters.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		input := filters.CreateFilterInput{Name: form.Value("name"), TagLine: form.OptionalString("tagLine")}
		if input.ShowAsCard, err = form.Bool("showAsCard"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		image, err := form.Image("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter, err := svc.CreateFilter(ctx, input, image)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, filter)
	}
}

// FilterEdit patches the filter named by the filterId query parameter. Form
// fields that are not sent keep their current value.
func FilterEdit(svc filters.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUID(r.URL.Query().Get("filterId"), "filterId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		patch := filters.FilterPatch{Name: form.OptionalString("name"), TagLine: form.OptionalString("tagLine")}
		if patch.ShowAsCard, err = form.Bool("showAsCard"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		image, err := form.Image("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter, err := svc.EditFilter(ctx, id, patch, image)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, filter)
	}
}

func FilterDelete(svc filters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req deleteFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var id uuid.UUID
		var err error
		switch {
		case req.IsFilter && req.FilterID != nil:
			id = *req.FilterID
			err = svc.DeleteFilter(ctx, id)
		case !req.IsFilter && req.GroupID != nil:
			id = *req.GroupID
			err = svc.DeleteFilterGroup(ctx, id)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "filterId or groupId is required")
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(id))
	}
}
