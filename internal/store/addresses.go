package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addressColumns = `id, user_id, label, line1, line2, city, pincode, lat, lon, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(dest ...any) error }) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City, &a.Pincode, &a.Lat, &a.Lon, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const createAddress = `
INSERT INTO addresses (user_id, label, line1, line2, city, pincode, lat, lon, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + addressColumns

type CreateAddressParams struct {
	UserID    pgtype.UUID
	Label     string
	Line1     string
	Line2     pgtype.Text
	City      string
	Pincode   string
	Lat       float64
	Lon       float64
	IsDefault bool
}

func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, createAddress,
		arg.UserID, arg.Label, arg.Line1, arg.Line2, arg.City, arg.Pincode, arg.Lat, arg.Lon, arg.IsDefault)
	return scanAddress(row)
}

const listAddressesByUser = `
SELECT ` + addressColumns + `
FROM addresses WHERE user_id = $1
ORDER BY is_default DESC, created_at DESC
`

func (q *Queries) ListAddressesByUser(ctx context.Context, userID pgtype.UUID) ([]Address, error) {
	rows, err := q.db.Query(ctx, listAddressesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const getAddressByID = `
SELECT ` + addressColumns + `
FROM addresses WHERE id = $1 AND user_id = $2
`

func (q *Queries) GetAddressByID(ctx context.Context, id, userID pgtype.UUID) (Address, error) {
	return scanAddress(q.db.QueryRow(ctx, getAddressByID, id, userID))
}

const getDefaultAddress = `
SELECT ` + addressColumns + `
FROM addresses WHERE user_id = $1 AND is_default
LIMIT 1
`

func (q *Queries) GetDefaultAddress(ctx context.Context, userID pgtype.UUID) (Address, error) {
	return scanAddress(q.db.QueryRow(ctx, getDefaultAddress, userID))
}

const updateAddress = `
UPDATE addresses
SET label = $3, line1 = $4, line2 = $5, city = $6, pincode = $7, lat = $8, lon = $9, is_default = $10, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + addressColumns

type UpdateAddressParams struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Label     string
	Line1     string
	Line2     pgtype.Text
	City      string
	Pincode   string
	Lat       float64
	Lon       float64
	IsDefault bool
}

func (q *Queries) UpdateAddress(ctx context.Context, arg UpdateAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, updateAddress,
		arg.ID, arg.UserID, arg.Label, arg.Line1, arg.Line2, arg.City, arg.Pincode, arg.Lat, arg.Lon, arg.IsDefault)
	return scanAddress(row)
}

const deleteAddress = `DELETE FROM addresses WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteAddress(ctx context.Context, id, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteAddress, id, userID)
	return err
}

const clearDefaultAddress = `UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default`

func (q *Queries) ClearDefaultAddress(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearDefaultAddress, userID)
	return err
}
