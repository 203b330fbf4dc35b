package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const couponColumns = `id, code, description, discount, free_delivery, min_spend, valid_from, valid_to, usage_limit, used_count, per_user_limit, active, created_at, updated_at`

func scanCoupon(row interface{ Scan(dest ...any) error }) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.Discount, &c.FreeDelivery, &c.MinSpend, &c.ValidFrom, &c.ValidTo, &c.UsageLimit, &c.UsedCount, &c.PerUserLimit, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCouponByCode = `
SELECT ` + couponColumns + `
FROM coupons WHERE upper(code) = upper($1)
`

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, getCouponByCode, code))
}

const listCoupons = `
SELECT ` + couponColumns + `
FROM coupons ORDER BY created_at DESC
`

func (q *Queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, listCoupons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const createCoupon = `
INSERT INTO coupons (code, description, discount, free_delivery, min_spend, valid_from, valid_to, usage_limit, per_user_limit, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + couponColumns

type CreateCouponParams struct {
	Code         string
	Description  pgtype.Text
	Discount     int64
	FreeDelivery bool
	MinSpend     int64
	ValidFrom    pgtype.Timestamptz
	ValidTo      pgtype.Timestamptz
	UsageLimit   pgtype.Int4
	PerUserLimit pgtype.Int4
	Active       bool
}

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, createCoupon,
		arg.Code, arg.Description, arg.Discount, arg.FreeDelivery, arg.MinSpend,
		arg.ValidFrom, arg.ValidTo, arg.UsageLimit, arg.PerUserLimit, arg.Active)
	return scanCoupon(row)
}

const updateCoupon = `
UPDATE coupons
SET description = $2, discount = $3, free_delivery = $4, min_spend = $5, valid_from = $6, valid_to = $7, usage_limit = $8, per_user_limit = $9, active = $10, updated_at = now()
WHERE id = $1
RETURNING ` + couponColumns

type UpdateCouponParams struct {
	ID           pgtype.UUID
	Description  pgtype.Text
	Discount     int64
	FreeDelivery bool
	MinSpend     int64
	ValidFrom    pgtype.Timestamptz
	ValidTo      pgtype.Timestamptz
	UsageLimit   pgtype.Int4
	PerUserLimit pgtype.Int4
	Active       bool
}

func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, updateCoupon,
		arg.ID, arg.Description, arg.Discount, arg.FreeDelivery, arg.MinSpend,
		arg.ValidFrom, arg.ValidTo, arg.UsageLimit, arg.PerUserLimit, arg.Active)
	return scanCoupon(row)
}

// IncrementCouponUsage enforces the global usage limit at the database level.
const incrementCouponUsage = `
UPDATE coupons
SET used_count = used_count + 1, updated_at = now()
WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
RETURNING ` + couponColumns

func (q *Queries) IncrementCouponUsage(ctx context.Context, id pgtype.UUID) (Coupon, error) {
	return scanCoupon(q.db.QueryRow(ctx, incrementCouponUsage, id))
}

const countRedemptionsByUser = `
SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2
`

func (q *Queries) CountRedemptionsByUser(ctx context.Context, couponID, userID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countRedemptionsByUser, couponID, userID).Scan(&n)
	return n, err
}

const createRedemption = `
INSERT INTO coupon_redemptions (coupon_id, user_id, order_id)
VALUES ($1, $2, $3)
RETURNING id, coupon_id, user_id, order_id, created_at
`

func (q *Queries) CreateRedemption(ctx context.Context, couponID, userID, orderID pgtype.UUID) (CouponRedemption, error) {
	var r CouponRedemption
	err := q.db.QueryRow(ctx, createRedemption, couponID, userID, orderID).
		Scan(&r.ID, &r.CouponID, &r.UserID, &r.OrderID, &r.CreatedAt)
	return r, err
}
