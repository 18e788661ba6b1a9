package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/shoplane/shoplane-backend/internal/catalog"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

type stubCatalogService struct {
	list       *catalogsvc.ProductListDTO
	product    *catalogsvc.ProductDTO
	categories []catalogsvc.CategoryDTO
	err        error
	lastFilter catalogsvc.ProductFilter
	deleted    bool
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter catalogsvc.ProductFilter) (*catalogsvc.ProductListDTO, error) {
	s.lastFilter = filter
	return s.list, s.err
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id int64) (*catalogsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalogsvc.CreateProductDTO) (*catalogsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id int64, input catalogsvc.UpdateProductDTO) (*catalogsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	s.deleted = true
	return s.err
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]catalogsvc.CategoryDTO, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) ListCategoryProducts(ctx context.Context, categoryID int64, page pagination.Params) (*catalogsvc.ProductListDTO, error) {
	return s.list, s.err
}

func TestProductListAppliesFilters(t *testing.T) {
	svc := &stubCatalogService{list: &catalogsvc.ProductListDTO{
		Products:   []catalogsvc.ProductDTO{{ID: 1, Name: "Widget", SKU: "SKU-1"}},
		Pagination: pagination.Meta{Page: 1, Limit: 10, Total: 1},
	}}
	handler := ProductList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products?search=widget&category_id=3&min_price=5.00&max_price=20.00&page=2&limit=5", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	filter := svc.lastFilter
	if filter.Search != "widget" {
		t.Fatalf("expected search filter, got %q", filter.Search)
	}
	if filter.CategoryID == nil || *filter.CategoryID != 3 {
		t.Fatalf("expected category 3, got %v", filter.CategoryID)
	}
	if filter.MinPrice == nil || !filter.MinPrice.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected min price 5.00, got %v", filter.MinPrice)
	}
	if filter.MaxPrice == nil || !filter.MaxPrice.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected max price 20.00, got %v", filter.MaxPrice)
	}
	if filter.Pagination.Page != 2 || filter.Pagination.Limit != 5 {
		t.Fatalf("unexpected pagination: %+v", filter.Pagination)
	}
}

func TestProductListRejectsBadCategory(t *testing.T) {
	handler := ProductList(&stubCatalogService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category_id=zero", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductGetNotFound(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")}

	router := chi.NewRouter()
	router.Get("/api/products/{id}", ProductGet(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/products/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Product not found" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestProductCreateCreated(t *testing.T) {
	svc := &stubCatalogService{product: &catalogsvc.ProductDTO{ID: 1, Name: "Widget", SKU: "SKU-1"}}
	handler := ProductCreate(svc, nil)

	body := `{"name":"Widget","sku":"SKU-1","price":"19.99","stock_quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestProductCreateMissingFields(t *testing.T) {
	handler := ProductCreate(&stubCatalogService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Widget"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductDelete(t *testing.T) {
	svc := &stubCatalogService{}

	router := chi.NewRouter()
	router.Delete("/api/products/{id}", ProductDelete(svc, nil))

	req := httptest.NewRequest(http.MethodDelete, "/api/products/1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.deleted {
		t.Fatal("expected delete call")
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Product deleted successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestCategoryList(t *testing.T) {
	svc := &stubCatalogService{categories: []catalogsvc.CategoryDTO{{ID: 1, Name: "Tools"}}}
	handler := CategoryList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
