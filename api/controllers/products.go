package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// searchRequest is the catalog search body. filters may be a JSON array of
// ids or a string holding one.
type searchRequest struct {
	Page     int               `json:"page"`
	Sort     enums.ProductSort `json:"sort"`
	Filters  json.RawMessage   `json:"filters"`
	Category *uuid.UUID        `json:"category"`
	CatType  string            `json:"catType"`
}

func hideCosts(rows []models.Product) []models.Product {
	for i := range rows {
		products.HideCosts(&rows[i])
	}
	return rows
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()
		filter := products.ListFilter{InnerSubCategories: validators.SplitList(q.Get("innerSubCategories"))}
		var err error
		if filter.CategoryIDs, err = validators.ParseUUIDList(q.Get("categories"), "categories"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if filter.SubCategoryIDs, err = validators.ParseUUIDList(q.Get("subCategories"), "subCategories"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, 1000); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, hideCosts(rows))
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products.HideCosts(product)
		responses.WriteSuccess(w, product)
	}
}

// ProductAdminGet returns the product with purchase costs.
func ProductAdminGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductCount(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := svc.Count(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"productCount": total})
	}
}

func ProductFeatured(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Featured(r.Context(), limitParam(r, "limit", defaultTopLimit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, hideCosts(rows))
	}
}

func ProductBestSellers(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.BestSellers(r.Context(), limitParam(r, "limit", defaultTopLimit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, hideCosts(rows))
	}
}

func ProductsWithDiscount(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out, err := svc.WithDiscount(ctx, page, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out.Products = hideCosts(out.Products)
		responses.WriteSuccess(w, out)
	}
}

// ProductCrumbs resolves breadcrumbs for ?product=id, or for ?category=id
// interpreted by ?catType (C, S or I).
func ProductCrumbs(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()
		var input products.CrumbsInput
		if raw := q.Get("product"); raw != "" {
			id, err := validators.ParseUUID(raw, "product")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.ProductID = &id
		} else {
			kind, err := enums.ParseCatalogScope(q.Get("catType"))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catType"))
				return
			}
			id, err := validators.ParseUUID(q.Get("category"), "category")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Kind = kind
			input.ScopeID = id
		}

		crumbs, err := svc.Crumbs(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, crumbs)
	}
}

// ProductSearch serves both the unscoped and the taxonomy-scoped catalog
// search. scoped requires a category and catType in the body.
func ProductSearch(svc products.Service, scoped bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req searchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filterIDs, err := products.DecodeFilterIDs(req.Filters)
		if err != nil && logg != nil {
			logg.WarnErr(ctx, "products.search.bad_filters", err)
		}
		input := products.SearchInput{Page: req.Page, Sort: req.Sort, FilterIDs: filterIDs}
		if scoped {
			kind, err := enums.ParseCatalogScope(req.CatType)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catType"))
				return
			}
			if req.Category == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
				return
			}
			input.Scope = &products.Scope{Kind: kind, ID: *req.Category}
		}

		out, err := svc.Search(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out.Products = hideCosts(out.Products)
		responses.WriteSuccess(w, out)
	}
}

// ProductCreate accepts the product multipart form: scalar fields, JSON
// variations, specifications and filterList, and image, imageAlt and
// otherImages files.
func ProductCreate(svc products.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		input, images, err := productForm(form, logg, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.Create(ctx, input, images)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate takes the same form as ProductCreate plus productId.
func ProductUpdate(svc products.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form, err := validators.ParseMultipart(w, r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		id, err := validators.ParseUUID(form.Value("productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, images, err := productForm(form, logg, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.Update(ctx, id, input, images)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deleted(id))
	}
}

func ProductsForAdmin(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ForAdmin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func LatestProductsForAdmin(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.LatestForAdmin(r.Context(), limitParam(r, "limit", defaultTopLimit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func ProductsTotalCost(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := svc.TotalCost(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"totalCost": total})
	}
}

func productForm(form *validators.Multipart, logg *logger.Logger, r *http.Request) (products.ProductInput, products.ProductImages, error) {
	var input products.ProductInput
	var images products.ProductImages
	var err error

	input.Name = form.Value("name")
	input.Type = form.Value("type")
	input.Description = form.Value("description")
	input.RichDescription = form.Value("richDescription")
	input.Brand = form.Value("brand")
	if inner := form.Value("innerSubCategory"); inner != "" {
		input.InnerSubCategory = &inner
	}

	if input.CategoryID, err = validators.ParseUUID(form.Value("category"), "category"); err != nil {
		return input, images, err
	}
	if input.SubCategoryID, err = validators.ParseUUID(form.Value("subCategory"), "subCategory"); err != nil {
		return input, images, err
	}
	numeric, err := form.Bool("isNumericVariation")
	if err != nil {
		return input, images, err
	}
	input.IsNumericVariation = numeric != nil && *numeric
	featured, err := form.Bool("isFeatured")
	if err != nil {
		return input, images, err
	}
	input.IsFeatured = featured != nil && *featured

	if input.Variations, err = products.DecodeVariations(form.Raw("variations")); err != nil {
		return input, images, err
	}
	if input.Specifications, err = products.DecodeSpecifications(form.Raw("specifications")); err != nil {
		return input, images, err
	}
	if input.FilterIDs, err = products.DecodeFilterIDs(form.Raw("filterList")); err != nil && logg != nil {
		logg.WarnErr(r.Context(), "products.bad_filter_list", err)
	}
	if input.OtherExistingImages, err = form.Strings("otherExistingImages"); err != nil {
		return input, images, err
	}

	if images.Image, err = form.Image("image"); err != nil {
		return input, images, err
	}
	if images.ImageAlt, err = form.Image("imageAlt"); err != nil {
		return input, images, err
	}
	if images.OtherImages, err = form.Images("otherImages"); err != nil {
		return input, images, err
	}
	return input, images, nil
}
