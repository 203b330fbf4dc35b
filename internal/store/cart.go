package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartItemColumns = `id, user_id, product_id, name, unit, qty, unit_price, subtotal, created_at, updated_at`

func scanCartItem(row interface{ Scan(dest ...any) error }) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Name, &it.Unit, &it.Qty, &it.UnitPrice, &it.Subtotal, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

const listCartItemsByUser = `
SELECT ` + cartItemColumns + `
FROM cart_items WHERE user_id = $1
ORDER BY created_at
`

func (q *Queries) ListCartItemsByUser(ctx context.Context, userID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItemsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const findCartItemByProduct = `
SELECT ` + cartItemColumns + `
FROM cart_items WHERE user_id = $1 AND product_id = $2
`

func (q *Queries) FindCartItemByProduct(ctx context.Context, userID, productID pgtype.UUID) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, findCartItemByProduct, userID, productID))
}

const getCartItemByID = `
SELECT ` + cartItemColumns + `
FROM cart_items WHERE id = $1 AND user_id = $2
`

func (q *Queries) GetCartItemByID(ctx context.Context, id, userID pgtype.UUID) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, getCartItemByID, id, userID))
}

const createCartItem = `
INSERT INTO cart_items (user_id, product_id, name, unit, qty, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cartItemColumns

type CreateCartItemParams struct {
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Unit      string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, createCartItem,
		arg.UserID, arg.ProductID, arg.Name, arg.Unit, arg.Qty, arg.UnitPrice, arg.Subtotal)
	return scanCartItem(row)
}

const updateCartItemQty = `
UPDATE cart_items
SET qty = $3, subtotal = $4, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + cartItemColumns

type UpdateCartItemQtyParams struct {
	ID       pgtype.UUID
	UserID   pgtype.UUID
	Qty      int32
	Subtotal int64
}

func (q *Queries) UpdateCartItemQty(ctx context.Context, arg UpdateCartItemQtyParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, updateCartItemQty, arg.ID, arg.UserID, arg.Qty, arg.Subtotal))
}

const deleteCartItem = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteCartItem(ctx context.Context, id, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartItem, id, userID)
	return err
}

const clearCartByUser = `DELETE FROM cart_items WHERE user_id = $1`

func (q *Queries) ClearCartByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCartByUser, userID)
	return err
}

const getCartState = `
SELECT user_id, coupon_code, updated_at FROM cart_states WHERE user_id = $1
`

func (q *Queries) GetCartState(ctx context.Context, userID pgtype.UUID) (CartState, error) {
	var st CartState
	err := q.db.QueryRow(ctx, getCartState, userID).Scan(&st.UserID, &st.CouponCode, &st.UpdatedAt)
	return st, err
}

const setCartCoupon = `
INSERT INTO cart_states (user_id, coupon_code, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET coupon_code = EXCLUDED.coupon_code, updated_at = now()
`

func (q *Queries) SetCartCoupon(ctx context.Context, userID pgtype.UUID, code pgtype.Text) error {
	_, err := q.db.Exec(ctx, setCartCoupon, userID, code)
	return err
}
