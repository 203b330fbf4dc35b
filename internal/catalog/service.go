package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Queries is the subset of the store the catalogue needs.
type Queries interface {
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (store.Product, error)
	CreateProduct(ctx context.Context, arg store.CreateProductParams) (store.Product, error)
	UpdateProduct(ctx context.Context, arg store.UpdateProductParams) (store.Product, error)
}

// Service serves the product catalogue. The default listing (no filters,
// first page) is cached since it backs the storefront home screen.
type Service struct {
	Q            Queries
	Cache        *cache.Cache
	DefaultLimit int32
	MaxLimit     int32
}

// ListParams are the normalised catalogue filters.
type ListParams struct {
	Category string
	Search   string
	Limit    int32
	Offset   int32
}

// Item is the public product payload.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Unit        string `json:"unit"`
	Price       int64  `json:"price"`
	MRP         int64  `json:"mrp"`
	InStock     bool   `json:"inStock"`
	Stock       int32  `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

const defaultListKey = "catalog:products:default"

func detailKey(slug string) string { return "catalog:product:" + slug }

func (s *Service) limits() (int32, int32) {
	def := s.DefaultLimit
	if def <= 0 {
		def = 20
	}
	max := s.MaxLimit
	if max <= 0 {
		max = 100
	}
	if def > max {
		def = max
	}
	return def, max
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	def, max := s.limits()
	params := ListParams{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("q")),
		Limit:    def,
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil || parsed < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = int32(parsed)
	}
	if params.Limit > max {
		params.Limit = max
	}
	if v := strings.TrimSpace(values.Get("offset")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil || parsed < 0 {
			return params, badRequest("offset", "offset must be a non-negative integer", err)
		}
		params.Offset = int32(parsed)
	}
	return params, nil
}

// List returns active products matching the filters.
func (s *Service) List(ctx context.Context, params ListParams) ([]Item, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	def, _ := s.limits()
	cacheable := params.Category == "" && params.Search == "" && params.Offset == 0 && params.Limit == def
	if cacheable {
		var cached []Item
		if ok, err := s.Cache.GetJSON(ctx, defaultListKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	rows, err := s.Q.ListProducts(ctx, store.ListProductsParams{
		Category: params.Category,
		Search:   params.Search,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	if cacheable {
		_ = s.Cache.SetJSON(ctx, defaultListKey, items)
	}
	return items, nil
}

// Categories returns the distinct active categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	categories, err := s.Q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get returns a single active product by slug.
func (s *Service) Get(ctx context.Context, slug string) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("catalog service not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Item{}, badRequest("slug", "slug is required", nil)
	}
	var cached Item
	if ok, err := s.Cache.GetJSON(ctx, detailKey(slug), &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.Q.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return Item{}, fmt.Errorf("get product: %w", err)
	}
	item := toItem(row)
	_ = s.Cache.SetJSON(ctx, detailKey(slug), item)
	return item, nil
}

// invalidate drops cached entries after an admin mutation.
func (s *Service) invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs)+1)
	keys = append(keys, defaultListKey)
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, detailKey(slug))
		}
	}
	_ = s.Cache.Invalidate(ctx, keys...)
}

func toItem(p store.Product) Item {
	item := Item{
		ID:       store.UUIDString(p.ID),
		Name:     p.Name,
		Slug:     p.Slug,
		Category: p.Category,
		Unit:     p.Unit,
		Price:    p.Price,
		MRP:      p.MRP,
		InStock:  p.Stock > 0,
		Stock:    p.Stock,
	}
	if p.Description.Valid {
		item.Description = p.Description.String
	}
	if p.ImageURL.Valid {
		item.ImageURL = p.ImageURL.String
	}
	return item
}

// Slugify turns a product name into a URL slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}
