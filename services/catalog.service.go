package services

import (
	"context"
	"fmt"
	"strings"

	"go-ecommerce/models"
	"go-ecommerce/pipeline"
	"go-ecommerce/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog listing sizes
const (
	ListingSize        = 10
	SearchPageSize     = 12
	RecommendationSize = 5
	GroupSize          = 4
	RandomSampleSize   = 6
)

type ProductReader interface {
	Find(ctx context.Context, filter, sort bson.D, limit int64) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Search(ctx context.Context, o pipeline.SearchOptions) (*pipeline.ProductFacet, error)
	GroupedByCategory(ctx context.Context, perCategory int) ([]models.CategoryProducts, error)
	CategoriesWithRandomProducts(ctx context.Context, size int) ([]models.CategoryProducts, error)
}

// SearchParams are the query parameters of a catalog search.
type SearchParams struct {
	Key        string
	CategoryID string
	Sort       string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
	Discounted bool
	Page       int
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// CatalogService serves the read-only guest catalog.
type CatalogService struct {
	products ProductReader
}

func NewCatalogService(products ProductReader) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Newest(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, "services.CatalogService.Newest", nil, pipeline.SortNewest, ListingSize)
}

func (s *CatalogService) TopRated(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, "services.CatalogService.TopRated", nil, pipeline.SortRating, ListingSize)
}

func (s *CatalogService) Discounted(ctx context.Context) ([]models.Product, error) {
	filter := pipeline.ProductFilter(pipeline.SearchOptions{Discounted: true})
	return s.find(ctx, "services.CatalogService.Discounted", filter, pipeline.SortDiscount, ListingSize)
}

// Recommended suggests a few of the best-rated products whose name contains key.
func (s *CatalogService) Recommended(ctx context.Context, key string) ([]models.Product, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return []models.Product{}, nil
	}

	filter := pipeline.ProductFilter(pipeline.SearchOptions{Key: key})
	return s.find(ctx, "services.CatalogService.Recommended", filter, pipeline.SortRating, RecommendationSize)
}

func (s *CatalogService) ByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	id, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return nil, ErrInvalidID
	}

	filter := pipeline.ProductFilter(pipeline.SearchOptions{CategoryID: &id})
	return s.find(ctx, "services.CatalogService.ByCategory", filter, pipeline.SortNewest, 0)
}

// ByIDs returns the products referenced by a cart or order.
func (s *CatalogService) ByIDs(ctx context.Context, productIDs []string) ([]models.Product, error) {
	const op = "services.CatalogService.ByIDs"

	if len(productIDs) == 0 {
		return nil, &utils.ValidationError{Fields: map[string]string{"productIds": "is required"}}
	}

	ids := make([]primitive.ObjectID, 0, len(productIDs))
	for _, hex := range productIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, ErrInvalidID
		}
		ids = append(ids, id)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *CatalogService) GroupedByCategory(ctx context.Context) ([]models.CategoryProducts, error) {
	const op = "services.CatalogService.GroupedByCategory"

	groups, err := s.products.GroupedByCategory(ctx, GroupSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

func (s *CatalogService) CategoriesWithRandomProducts(ctx context.Context) ([]models.CategoryProducts, error) {
	const op = "services.CatalogService.CategoriesWithRandomProducts"

	groups, err := s.products.CategoriesWithRandomProducts(ctx, RandomSampleSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// Search returns one page of products matching every given filter.
func (s *CatalogService) Search(ctx context.Context, p SearchParams) (*ProductPage, error) {
	const op = "services.CatalogService.Search"

	o := pipeline.SearchOptions{
		Key:        strings.TrimSpace(p.Key),
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		MinRating:  p.MinRating,
		Discounted: p.Discounted,
		Sort:       p.Sort,
	}
	if p.CategoryID != "" {
		id, err := primitive.ObjectIDFromHex(p.CategoryID)
		if err != nil {
			return nil, ErrInvalidID
		}
		o.CategoryID = &id
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return nil, ErrInvalidPriceRange
	}

	page, limit := normalizePage(p.Page, SearchPageSize)
	o.Skip = skipFor(page, limit)
	o.Limit = int64(limit)

	facet, err := s.products.Search(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products := facet.Products
	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{
		Products:   products,
		Pagination: newPagination(page, limit, facet.Count()),
	}, nil
}

func (s *CatalogService) find(ctx context.Context, op string, filter bson.D, sort string, limit int64) ([]models.Product, error) {
	products, err := s.products.Find(ctx, filter, pipeline.ProductSort(sort), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}
