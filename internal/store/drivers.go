package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const driverColumns = `id, name, phone, vehicle_no, status, lat, lon, located_at, created_at, updated_at`

func scanDriver(row interface{ Scan(dest ...any) error }) (Driver, error) {
	var d Driver
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.VehicleNo, &d.Status, &d.Lat, &d.Lon, &d.LocatedAt, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

const createDriver = `
INSERT INTO drivers (name, phone, vehicle_no, status)
VALUES ($1, $2, $3, $4)
RETURNING ` + driverColumns

type CreateDriverParams struct {
	Name      string
	Phone     string
	VehicleNo pgtype.Text
	Status    string
}

func (q *Queries) CreateDriver(ctx context.Context, arg CreateDriverParams) (Driver, error) {
	row := q.db.QueryRow(ctx, createDriver, arg.Name, arg.Phone, arg.VehicleNo, arg.Status)
	return scanDriver(row)
}

const getDriverByID = `
SELECT ` + driverColumns + `
FROM drivers WHERE id = $1
`

func (q *Queries) GetDriverByID(ctx context.Context, id pgtype.UUID) (Driver, error) {
	return scanDriver(q.db.QueryRow(ctx, getDriverByID, id))
}

const listDrivers = `
SELECT ` + driverColumns + `
FROM drivers
WHERE $1::text IS NULL OR status = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListDrivers(ctx context.Context, status pgtype.Text, limit, offset int32) ([]Driver, error) {
	rows, err := q.db.Query(ctx, listDrivers, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const countDrivers = `
SELECT count(*) FROM drivers WHERE $1::text IS NULL OR status = $1
`

func (q *Queries) CountDrivers(ctx context.Context, status pgtype.Text) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countDrivers, status).Scan(&n)
	return n, err
}

const updateDriver = `
UPDATE drivers
SET name = $2, phone = $3, vehicle_no = $4, status = $5, updated_at = now()
WHERE id = $1
RETURNING ` + driverColumns

type UpdateDriverParams struct {
	ID        pgtype.UUID
	Name      string
	Phone     string
	VehicleNo pgtype.Text
	Status    string
}

func (q *Queries) UpdateDriver(ctx context.Context, arg UpdateDriverParams) (Driver, error) {
	row := q.db.QueryRow(ctx, updateDriver, arg.ID, arg.Name, arg.Phone, arg.VehicleNo, arg.Status)
	return scanDriver(row)
}

const updateDriverStatus = `
UPDATE drivers SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + driverColumns

func (q *Queries) UpdateDriverStatus(ctx context.Context, id pgtype.UUID, status string) (Driver, error) {
	return scanDriver(q.db.QueryRow(ctx, updateDriverStatus, id, status))
}

const updateDriverLocation = `
UPDATE drivers
SET lat = $2, lon = $3, located_at = now(), updated_at = now()
WHERE id = $1
RETURNING ` + driverColumns

func (q *Queries) UpdateDriverLocation(ctx context.Context, id pgtype.UUID, lat, lon float64) (Driver, error) {
	return scanDriver(q.db.QueryRow(ctx, updateDriverLocation, id, lat, lon))
}

const listLocatedDrivers = `
SELECT ` + driverColumns + `
FROM drivers
WHERE status = $1 AND lat IS NOT NULL AND lon IS NOT NULL
`

// ListLocatedDrivers returns drivers in the given status that have reported a
// location. Distance filtering happens in the service layer.
func (q *Queries) ListLocatedDrivers(ctx context.Context, status string) ([]Driver, error) {
	rows, err := q.db.Query(ctx, listLocatedDrivers, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
