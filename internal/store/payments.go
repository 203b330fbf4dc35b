package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const paymentIntentColumns = `id, order_id, provider, channel, status, amount, provider_ref, expires_at, created_at, updated_at`

func scanPaymentIntent(row interface{ Scan(dest ...any) error }) (PaymentIntent, error) {
	var p PaymentIntent
	err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.Channel, &p.Status, &p.Amount, &p.ProviderRef, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createPaymentIntent = `
INSERT INTO payment_intents (order_id, provider, channel, status, amount, provider_ref, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentIntentColumns

type CreatePaymentIntentParams struct {
	OrderID     pgtype.UUID
	Provider    string
	Channel     string
	Status      string
	Amount      int64
	ProviderRef pgtype.Text
	ExpiresAt   pgtype.Timestamptz
}

func (q *Queries) CreatePaymentIntent(ctx context.Context, arg CreatePaymentIntentParams) (PaymentIntent, error) {
	row := q.db.QueryRow(ctx, createPaymentIntent,
		arg.OrderID, arg.Provider, arg.Channel, arg.Status, arg.Amount, arg.ProviderRef, arg.ExpiresAt)
	return scanPaymentIntent(row)
}

const getPaymentIntentByID = `
SELECT ` + paymentIntentColumns + `
FROM payment_intents WHERE id = $1
`

func (q *Queries) GetPaymentIntentByID(ctx context.Context, id pgtype.UUID) (PaymentIntent, error) {
	return scanPaymentIntent(q.db.QueryRow(ctx, getPaymentIntentByID, id))
}

const getPaymentIntentByRef = `
SELECT ` + paymentIntentColumns + `
FROM payment_intents WHERE provider_ref = $1
`

func (q *Queries) GetPaymentIntentByRef(ctx context.Context, ref string) (PaymentIntent, error) {
	return scanPaymentIntent(q.db.QueryRow(ctx, getPaymentIntentByRef, ref))
}

const getPaymentIntentByOrder = `
SELECT ` + paymentIntentColumns + `
FROM payment_intents WHERE order_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetPaymentIntentByOrder(ctx context.Context, orderID pgtype.UUID) (PaymentIntent, error) {
	return scanPaymentIntent(q.db.QueryRow(ctx, getPaymentIntentByOrder, orderID))
}

const countFailedPaymentIntentsSince = `
SELECT count(*)
FROM payment_intents p
JOIN orders o ON o.id = p.order_id
WHERE o.user_id = $1 AND p.status = 'FAILED' AND p.created_at >= $2
`

func (q *Queries) CountFailedPaymentIntentsSince(ctx context.Context, userID pgtype.UUID, since pgtype.Timestamptz) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countFailedPaymentIntentsSince, userID, since).Scan(&n)
	return n, err
}

const lastPaymentIntentAt = `
SELECT p.created_at
FROM payment_intents p
JOIN orders o ON o.id = p.order_id
WHERE o.user_id = $1
ORDER BY p.created_at DESC
LIMIT 1
`

func (q *Queries) LastPaymentIntentAt(ctx context.Context, userID pgtype.UUID) (pgtype.Timestamptz, error) {
	var ts pgtype.Timestamptz
	err := q.db.QueryRow(ctx, lastPaymentIntentAt, userID).Scan(&ts)
	return ts, err
}

const updatePaymentIntentStatus = `
UPDATE payment_intents SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + paymentIntentColumns

func (q *Queries) UpdatePaymentIntentStatus(ctx context.Context, id pgtype.UUID, status string) (PaymentIntent, error) {
	return scanPaymentIntent(q.db.QueryRow(ctx, updatePaymentIntentStatus, id, status))
}
