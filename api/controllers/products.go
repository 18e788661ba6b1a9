package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	catalogsvc "github.com/shoplane/shoplane-backend/internal/catalog"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

// ProductList serves the public product listing with filters.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ProductGet serves a single active product.
func ProductGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "product ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductCreate adds a product to the catalog. Admin-gated in the router.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body catalogsvc.CreateProductDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate applies partial product changes. Admin-gated in the router.
func ProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "product ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body catalogsvc.UpdateProductDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductDelete soft-deletes a product. Admin-gated in the router.
func ProductDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "product ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Product deleted successfully", nil)
	}
}

// CategoryList serves all categories.
func CategoryList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

// CategoryProducts serves the paginated products of one category.
func CategoryProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "id", "category ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCategoryProducts(r.Context(), id, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

func parseProductFilter(r *http.Request) (catalogsvc.ProductFilter, error) {
	page, err := parsePagination(r)
	if err != nil {
		return catalogsvc.ProductFilter{}, err
	}

	filter := catalogsvc.ProductFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Pagination: page,
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return catalogsvc.ProductFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid category ID").
				WithDetails(map[string]any{"field": "category_id"})
		}
		filter.CategoryID = &id
	}

	minPrice, err := parseQueryDecimal(r, "min_price")
	if err != nil {
		return catalogsvc.ProductFilter{}, err
	}
	filter.MinPrice = minPrice

	maxPrice, err := parseQueryDecimal(r, "max_price")
	if err != nil {
		return catalogsvc.ProductFilter{}, err
	}
	filter.MaxPrice = maxPrice

	return filter, nil
}

func parseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative amount").
			WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
