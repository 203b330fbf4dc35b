package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, slug, description, category, unit, price, mrp, stock, image_url, active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Unit, &p.Price, &p.MRP, &p.Stock, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listProducts = `
SELECT ` + productColumns + `
FROM products
WHERE active
  AND ($1 = '' OR category = $1)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4
`

type ListProductsParams struct {
	Category string
	Search   string
	Limit    int32
	Offset   int32
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, arg.Category, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const listCategories = `
SELECT DISTINCT category FROM products WHERE active ORDER BY category
`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const getProductByID = `
SELECT ` + productColumns + `
FROM products WHERE id = $1
`

func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductByID, id))
}

const getProductBySlug = `
SELECT ` + productColumns + `
FROM products WHERE slug = $1 AND active
`

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductBySlug, slug))
}

const createProduct = `
INSERT INTO products (name, slug, description, category, unit, price, mrp, stock, image_url, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + productColumns

type CreateProductParams struct {
	Name        string
	Slug        string
	Description pgtype.Text
	Category    string
	Unit        string
	Price       int64
	MRP         int64
	Stock       int32
	ImageURL    pgtype.Text
	Active      bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Slug, arg.Description, arg.Category, arg.Unit, arg.Price, arg.MRP, arg.Stock, arg.ImageURL, arg.Active)
	return scanProduct(row)
}

const updateProduct = `
UPDATE products
SET name = $2, description = $3, category = $4, unit = $5, price = $6, mrp = $7, stock = $8, image_url = $9, active = $10, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Category    string
	Unit        string
	Price       int64
	MRP         int64
	Stock       int32
	ImageURL    pgtype.Text
	Active      bool
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.Unit, arg.Price, arg.MRP, arg.Stock, arg.ImageURL, arg.Active)
	return scanProduct(row)
}

// DecrementProductStock fails with no rows when remaining stock is insufficient.
const decrementProductStock = `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
RETURNING ` + productColumns

func (q *Queries) DecrementProductStock(ctx context.Context, id pgtype.UUID, qty int32) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, decrementProductStock, id, qty))
}

const restoreProductStock = `
UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
`

func (q *Queries) RestoreProductStock(ctx context.Context, id pgtype.UUID, qty int32) error {
	_, err := q.db.Exec(ctx, restoreProductStock, id, qty)
	return err
}
