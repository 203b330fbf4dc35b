package catalog

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/store"
)

type fakeQueries struct {
	products  []store.Product
	listCalls int
	getCalls  int
}

func (f *fakeQueries) ListProducts(_ context.Context, arg store.ListProductsParams) ([]store.Product, error) {
	f.listCalls++
	var out []store.Product
	for _, p := range f.products {
		if !p.Active {
			continue
		}
		if arg.Category != "" && p.Category != arg.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeQueries) ListCategories(context.Context) ([]string, error) {
	return []string{"dairy", "produce"}, nil
}

func (f *fakeQueries) GetProductBySlug(_ context.Context, slug string) (store.Product, error) {
	f.getCalls++
	for _, p := range f.products {
		if p.Slug == slug && p.Active {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (f *fakeQueries) GetProductByID(_ context.Context, id pgtype.UUID) (store.Product, error) {
	for _, p := range f.products {
		if store.UUIDEqual(p.ID, id) {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (f *fakeQueries) CreateProduct(_ context.Context, arg store.CreateProductParams) (store.Product, error) {
	p := store.Product{
		ID:       store.NewUUID(),
		Name:     arg.Name,
		Slug:     arg.Slug,
		Category: arg.Category,
		Unit:     arg.Unit,
		Price:    arg.Price,
		MRP:      arg.MRP,
		Stock:    arg.Stock,
		Active:   arg.Active,
	}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeQueries) UpdateProduct(_ context.Context, arg store.UpdateProductParams) (store.Product, error) {
	for i, p := range f.products {
		if store.UUIDEqual(p.ID, arg.ID) {
			p.Name = arg.Name
			p.Price = arg.Price
			p.Stock = arg.Stock
			p.Active = arg.Active
			f.products[i] = p
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func testProduct(name, slug, category string, price int64, stock int32) store.Product {
	return store.Product{
		ID:       store.NewUUID(),
		Name:     name,
		Slug:     slug,
		Category: category,
		Unit:     "500g",
		Price:    price,
		MRP:      price,
		Stock:    stock,
		Active:   true,
	}
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute)
}

func TestParseListParams(t *testing.T) {
	t.Parallel()
	svc := &Service{Q: &fakeQueries{}}

	params, err := svc.ParseListParams(url.Values{"category": {" dairy "}, "q": {"milk"}, "limit": {"5"}, "offset": {"10"}})
	require.NoError(t, err)
	require.Equal(t, "dairy", params.Category)
	require.Equal(t, "milk", params.Search)
	require.EqualValues(t, 5, params.Limit)
	require.EqualValues(t, 10, params.Offset)

	params, err = svc.ParseListParams(url.Values{"limit": {"9999"}})
	require.NoError(t, err)
	require.EqualValues(t, 100, params.Limit)

	_, err = svc.ParseListParams(url.Values{"limit": {"zero"}})
	require.Error(t, err)
	_, err = svc.ParseListParams(url.Values{"offset": {"-1"}})
	require.Error(t, err)
}

func TestListCachesDefaultPage(t *testing.T) {
	t.Parallel()
	q := &fakeQueries{products: []store.Product{
		testProduct("Toned Milk", "toned-milk", "dairy", 2900, 50),
		testProduct("Bananas", "bananas", "produce", 4500, 12),
	}}
	svc := &Service{Q: q, Cache: testCache(t)}
	ctx := context.Background()

	first, err := svc.List(ctx, ListParams{Limit: 20})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, q.listCalls)

	// Second identical request is served from cache.
	second, err := svc.List(ctx, ListParams{Limit: 20})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, q.listCalls)

	// Filtered requests bypass the cache.
	_, err = svc.List(ctx, ListParams{Category: "dairy", Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 2, q.listCalls)
}

func TestGetProduct(t *testing.T) {
	t.Parallel()
	q := &fakeQueries{products: []store.Product{
		testProduct("Toned Milk", "toned-milk", "dairy", 2900, 50),
	}}
	svc := &Service{Q: q, Cache: testCache(t)}
	ctx := context.Background()

	item, err := svc.Get(ctx, "toned-milk")
	require.NoError(t, err)
	require.Equal(t, "Toned Milk", item.Name)
	require.True(t, item.InStock)

	// Cached on second read.
	_, err = svc.Get(ctx, "toned-milk")
	require.NoError(t, err)
	require.Equal(t, 1, q.getCalls)

	_, err = svc.Get(ctx, "no-such-slug")
	require.Error(t, err)
	_, err = svc.Get(ctx, "")
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	t.Parallel()
	require.Equal(t, "toned-milk-500ml", Slugify("Toned Milk 500ml"))
	require.Equal(t, "alphonso-mangoes", Slugify("  Alphonso  Mangoes!  "))
	require.Equal(t, "a2-ghee", Slugify("A2 Ghee"))
	require.Equal(t, "", Slugify("  "))
}
