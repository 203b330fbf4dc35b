package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const reviewColumns = `id, product_id, user_id, rating, comment, created_at`

func scanReview(row interface{ Scan(dest ...any) error }) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt)
	return r, err
}

// UpsertReview replaces the user's previous review of the product, if any.
const upsertReview = `
INSERT INTO reviews (product_id, user_id, rating, comment)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id, user_id)
DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = now()
RETURNING ` + reviewColumns

func (q *Queries) UpsertReview(ctx context.Context, productID, userID pgtype.UUID, rating int32, comment pgtype.Text) (Review, error) {
	return scanReview(q.db.QueryRow(ctx, upsertReview, productID, userID, rating, comment))
}

const listReviewsByProduct = `
SELECT ` + reviewColumns + `
FROM reviews WHERE product_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListReviewsByProduct(ctx context.Context, productID pgtype.UUID, limit, offset int32) ([]Review, error) {
	rows, err := q.db.Query(ctx, listReviewsByProduct, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getReviewStats = `
SELECT count(*), coalesce(avg(rating), 0)
FROM reviews WHERE product_id = $1
`

type ReviewStats struct {
	Count         int64
	AverageRating float64
}

func (q *Queries) GetReviewStats(ctx context.Context, productID pgtype.UUID) (ReviewStats, error) {
	var s ReviewStats
	err := q.db.QueryRow(ctx, getReviewStats, productID).Scan(&s.Count, &s.AverageRating)
	return s, err
}

const deleteReview = `DELETE FROM reviews WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteReview(ctx context.Context, id, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteReview, id, userID)
	return err
}
