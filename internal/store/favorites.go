package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addFavorite = `
INSERT INTO favorites (user_id, product_id)
VALUES ($1, $2)
ON CONFLICT (user_id, product_id) DO NOTHING
`

func (q *Queries) AddFavorite(ctx context.Context, userID, productID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, addFavorite, userID, productID)
	return err
}

const removeFavorite = `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`

func (q *Queries) RemoveFavorite(ctx context.Context, userID, productID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, removeFavorite, userID, productID)
	return err
}

const checkFavorite = `SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2`

func (q *Queries) CheckFavorite(ctx context.Context, userID, productID pgtype.UUID) (bool, error) {
	var one int
	err := q.db.QueryRow(ctx, checkFavorite, userID, productID).Scan(&one)
	if err != nil {
		return false, err
	}
	return true, nil
}

const listFavorites = `
SELECT p.` + "id, p.name, p.slug, p.description, p.category, p.unit, p.price, p.mrp, p.stock, p.image_url, p.active, p.created_at, p.updated_at" + `
FROM favorites f
JOIN products p ON p.id = f.product_id
WHERE f.user_id = $1 AND p.active
ORDER BY f.created_at DESC
`

func (q *Queries) ListFavorites(ctx context.Context, userID pgtype.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listFavorites, userID)
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
