package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// SalesDay is one day's order volume and revenue. Cancelled orders are excluded.
type SalesDay struct {
	Day     time.Time
	Orders  int64
	Revenue int64
}

const getSalesDailyRange = `
SELECT date_trunc('day', created_at) AS day, count(*), coalesce(sum(total), 0)
FROM orders
WHERE status <> 'CANCELLED' AND created_at >= $1 AND created_at < $2
GROUP BY day
ORDER BY day
`

func (q *Queries) GetSalesDailyRange(ctx context.Context, from, to pgtype.Timestamptz) ([]SalesDay, error) {
	rows, err := q.db.Query(ctx, getSalesDailyRange, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesDay
	for rows.Next() {
		var d SalesDay
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProduct aggregates sold quantity and revenue per product.
type TopProduct struct {
	ProductID pgtype.UUID
	Name      string
	QtySold   int64
	Revenue   int64
}

const getTopProducts = `
SELECT oi.product_id, oi.name, sum(oi.qty), sum(oi.subtotal)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status <> 'CANCELLED'
GROUP BY oi.product_id, oi.name
ORDER BY sum(oi.qty) DESC
LIMIT $1 OFFSET $2
`

func (q *Queries) GetTopProducts(ctx context.Context, limit, offset int32) ([]TopProduct, error) {
	rows, err := q.db.Query(ctx, getTopProducts, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QtySold, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
