package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name      string  `json:"name" validate:"required"`
	ShowInNav *bool   `json:"showInNav"`
	Icon      *string `json:"icon"`
	Color     *string `json:"color"`
}

type innerCategoriesRequest struct {
	InnerCategories []string `json:"innerCategories" validate:"required,min=1,dive,required"`
}

// taxonomyTarget selects which level of the tree an update or delete
// addresses. subId names a subcategory, or an inner category when isInnerSub
// is set, in which case parentSubcategory holds its subcategory.
type taxonomyTarget struct {
	IsSub             bool       `json:"isSub"`
	IsInnerSub        bool       `json:"isInnerSub"`
	SubID             *uuid.UUID `json:"subId"`
	CategoryID        *uuid.UUID `json:"categoryId"`
	ParentSubcategory *uuid.UUID `json:"parentSubcategory"`
}

type taxonomyUpdatedData struct {
	Name      *string    `json:"name"`
	ShowInNav *bool      `json:"showInNav"`
	Icon      *string    `json:"icon"`
	Color     *string    `json:"color"`
	Category  *uuid.UUID `json:"category"`
}

func CategoryList(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CategoryListWithSubcategories(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListWithSubCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CategoryNavBar(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.NavBarCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CategoryGet(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CategoryCreate(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), taxonomy.CreateCategoryInput{
			Name:      req.Name,
			ShowInNav: req.ShowInNav,
			Icon:      req.Icon,
			Color:     req.Color,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// SubCategoryCreate accepts a multipart form with name, showInNav,
// innerCategories, category and an optional image.
func SubCategoryCreate(svc taxonomy.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		input := taxonomy.CreateSubCategoryInput{Name: form.Value("name")}
		if input.ShowInNav, err = form.Bool("showInNav"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.InnerCategories, err = form.Strings("innerCategories"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.CategoryID, err = form.UUID("category"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		image, err := form.Image("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.CreateSubCategory(ctx, input, image)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

func InnerCategoryCreate(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "subcategoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req innerCategoriesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := svc.AddInnerCategories(r.Context(), id, req.InnerCategories)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// CategoryUpdate edits one node of the tree. The multipart form carries the
// taxonomyTarget flags, an updatedData JSON object and an optional image.
func CategoryUpdate(svc taxonomy.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		target, err := formTarget(form)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var data taxonomyUpdatedData
		if _, err := form.JSON("updatedData", &data); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		image, err := form.Image("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var out any
		switch {
		case target.IsInnerSub:
			if target.ParentSubcategory == nil || target.SubID == nil || data.Name == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "parentSubcategory, subId and updatedData.name are required")
				break
			}
			out, err = svc.UpdateInnerCategory(ctx, *target.ParentSubcategory, *target.SubID, *data.Name)
		case target.IsSub:
			if target.SubID == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "subId is required")
				break
			}
			out, err = svc.UpdateSubCategory(ctx, *target.SubID, taxonomy.SubCategoryPatch{
				Name:       data.Name,
				ShowInNav:  data.ShowInNav,
				CategoryID: data.Category,
			}, image)
		default:
			if target.CategoryID == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "categoryId is required")
				break
			}
			out, err = svc.UpdateCategory(ctx, *target.CategoryID, taxonomy.CategoryPatch{
				Name:      data.Name,
				ShowInNav: data.ShowInNav,
				Icon:      data.Icon,
				Color:     data.Color,
			}, image)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func CategoryDelete(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var target taxonomyTarget
		if err := validators.DecodeJSONBody(r, &target); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var id uuid.UUID
		var err error
		switch {
		case target.IsInnerSub:
			if target.ParentSubcategory == nil || target.SubID == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "parentSubcategory and subId are required")
				break
			}
			id = *target.SubID
			err = svc.DeleteInnerCategory(ctx, *target.ParentSubcategory, id)
		case target.IsSub:
			if target.SubID == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "subId is required")
				break
			}
			id = *target.SubID
			err = svc.DeleteSubCategory(ctx, target.CategoryID, id)
		default:
			if target.CategoryID == nil {
				err = pkgerrors.New(pkgerrors.CodeValidation, "categoryId is required")
				break
			}
			id = *target.CategoryID
			err = svc.DeleteCategory(ctx, id)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(id))
	}
}

func SubCategoryList(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListSubCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func SubCategoryGet(svc taxonomy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := svc.GetSubCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

func formTarget(form *validators.Multipart) (taxonomyTarget, error) {
	var target taxonomyTarget
	var err error
	flags := []struct {
		key string
		out *bool
	}{{"isSub", &target.IsSub}, {"isInnerSub", &target.IsInnerSub}}
	for _, flag := range flags {
		v, err := form.Bool(flag.key)
		if err != nil {
			return target, err
		}
		*flag.out = v != nil && *v
	}
	if target.SubID, err = form.UUID("subId"); err != nil {
		return target, err
	}
	if target.CategoryID, err = form.UUID("categoryId"); err != nil {
		return target, err
	}
	if target.ParentSubcategory, err = form.UUID("parentSubcategory"); err != nil {
		return target, err
	}
	return target, nil
}
