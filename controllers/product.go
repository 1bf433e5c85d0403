package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"go-ecommerce/models"
	"go-ecommerce/services"
	"go-ecommerce/utils"

	"github.com/gorilla/mux"
)

type Catalog interface {
	Newest(ctx context.Context) ([]models.Product, error)
	TopRated(ctx context.Context) ([]models.Product, error)
	Discounted(ctx context.Context) ([]models.Product, error)
	Recommended(ctx context.Context, key string) ([]models.Product, error)
	ByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	ByIDs(ctx context.Context, productIDs []string) ([]models.Product, error)
	GroupedByCategory(ctx context.Context) ([]models.CategoryProducts, error)
	CategoriesWithRandomProducts(ctx context.Context) ([]models.CategoryProducts, error)
	Search(ctx context.Context, p services.SearchParams) (*services.ProductPage, error)
}

// ProductController serves the guest catalog
type ProductController struct {
	catalog Catalog
	log     *slog.Logger
}

// NewProductController creates a new ProductController
func NewProductController(catalog Catalog, log *slog.Logger) *ProductController {
	return &ProductController{catalog: catalog, log: log}
}

func (pc *ProductController) list(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) ([]models.Product, error)) {
	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := fetch(ctx)
	if err != nil {
		writeError(w, r, pc.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"products": products})
}

func (pc *ProductController) GetNewestProducts(w http.ResponseWriter, r *http.Request) {
	pc.list(w, r, pc.catalog.Newest)
}

func (pc *ProductController) GetTopRatedProducts(w http.ResponseWriter, r *http.Request) {
	pc.list(w, r, pc.catalog.TopRated)
}

func (pc *ProductController) GetDiscountProducts(w http.ResponseWriter, r *http.Request) {
	pc.list(w, r, pc.catalog.Discounted)
}

func (pc *ProductController) GetSearchRecommended(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("searchKey")
	pc.list(w, r, func(ctx context.Context) ([]models.Product, error) {
		return pc.catalog.Recommended(ctx, key)
	})
}

func (pc *ProductController) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := mux.Vars(r)["categoryId"]
	pc.list(w, r, func(ctx context.Context) ([]models.Product, error) {
		return pc.catalog.ByCategory(ctx, categoryID)
	})
}

// GetOrderProducts returns the products with the posted ids
func (pc *ProductController) GetOrderProducts(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductIDs []string `json:"productIds" validate:"required,min=1"`
	}
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, pc.log, err)
		return
	}

	pc.list(w, r, func(ctx context.Context) ([]models.Product, error) {
		return pc.catalog.ByIDs(ctx, in.ProductIDs)
	})
}

func (pc *ProductController) groups(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) ([]models.CategoryProducts, error)) {
	ctx, cancel := requestContext(r)
	defer cancel()

	groups, err := fetch(ctx)
	if err != nil {
		writeError(w, r, pc.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"categories": groups})
}

func (pc *ProductController) GetProductsGroupedByCategory(w http.ResponseWriter, r *http.Request) {
	pc.groups(w, r, pc.catalog.GroupedByCategory)
}

func (pc *ProductController) GetCategoriesWithRandomProducts(w http.ResponseWriter, r *http.Request) {
	pc.groups(w, r, pc.catalog.CategoriesWithRandomProducts)
}

// GetSearchResult handles /products/search?searchKey=&category=&sort=&minPrice=&maxPrice=&rating=&discount=&page=
func (pc *ProductController) GetSearchResult(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	params := services.SearchParams{
		Key:        q.Get("searchKey"),
		CategoryID: q.Get("category"),
		Sort:       q.Get("sort"),
		MinPrice:   parseFloat(q, "minPrice", fields),
		MaxPrice:   parseFloat(q, "maxPrice", fields),
		MinRating:  parseFloat(q, "rating", fields),
		Discounted: q.Get("discount") == "true",
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))

	if len(fields) > 0 {
		utils.FailValidation(w, fields)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	result, err := pc.catalog.Search(ctx, params)
	if err != nil {
		writeError(w, r, pc.log, err)
		return
	}

	utils.OK(w, result)
}

// parseFloat reads an optional number, recording a field error when it is malformed.
func parseFloat(q url.Values, key string, fields map[string]string) *float64 {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fields[key] = "must be a number"
		return nil
	}
	return &v
}
