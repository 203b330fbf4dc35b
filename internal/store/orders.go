package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, address_id, driver_id, status, subtotal, tax, delivery_fee, delivery_free, discount, discount_capped, total, coupon_code, weather_impact, weather_notice, payment_method, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.DriverID, &o.Status, &o.Subtotal, &o.Tax, &o.DeliveryFee, &o.DeliveryFree, &o.Discount, &o.DiscountCapped, &o.Total, &o.CouponCode, &o.WeatherImpact, &o.WeatherNotice, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (user_id, address_id, status, subtotal, tax, delivery_fee, delivery_free, discount, discount_capped, total, coupon_code, weather_impact, weather_notice, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID         pgtype.UUID
	AddressID      pgtype.UUID
	Status         string
	Subtotal       int64
	Tax            int64
	DeliveryFee    int64
	DeliveryFree   bool
	Discount       int64
	DiscountCapped bool
	Total          int64
	CouponCode     pgtype.Text
	WeatherImpact  bool
	WeatherNotice  pgtype.Text
	PaymentMethod  string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID, arg.AddressID, arg.Status, arg.Subtotal, arg.Tax, arg.DeliveryFee, arg.DeliveryFree,
		arg.Discount, arg.DiscountCapped, arg.Total, arg.CouponCode, arg.WeatherImpact, arg.WeatherNotice, arg.PaymentMethod)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, name, unit, qty, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, product_id, name, unit, qty, unit_price, subtotal
`

type CreateOrderItemParams struct {
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Unit      string
	Qty       int32
	UnitPrice int64
	Subtotal  int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.Name, arg.Unit, arg.Qty, arg.UnitPrice, arg.Subtotal).
		Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Unit, &it.Qty, &it.UnitPrice, &it.Subtotal)
	return it, err
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const getOrderByID = `
SELECT ` + orderColumns + `
FROM orders WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const listOrderItems = `
SELECT id, order_id, product_id, name, unit, qty, unit_price, subtotal
FROM order_items WHERE order_id = $1
ORDER BY name
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Unit, &it.Qty, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const countOrdersByUser = `
SELECT count(*) FROM orders WHERE user_id = $1
`

func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrdersByUser, userID).Scan(&n)
	return n, err
}

const listOrdersByDriver = `
SELECT ` + orderColumns + `
FROM orders WHERE driver_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListOrdersByDriver(ctx context.Context, driverID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByDriver, driverID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const assignOrderDriver = `
UPDATE orders SET driver_id = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) AssignOrderDriver(ctx context.Context, orderID, driverID pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, assignOrderDriver, orderID, driverID))
}

const updateOrderStatus = `
UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, status string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, id, status))
}
