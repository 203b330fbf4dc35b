package driver

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/store"
)

type fakeQueries struct {
	drivers map[string]store.Driver
	orders  map[string]store.Order
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		drivers: map[string]store.Driver{},
		orders:  map[string]store.Order{},
	}
}

func (f *fakeQueries) CreateDriver(_ context.Context, arg store.CreateDriverParams) (store.Driver, error) {
	d := store.Driver{
		ID:        store.NewUUID(),
		Name:      arg.Name,
		Phone:     arg.Phone,
		VehicleNo: arg.VehicleNo,
		Status:    arg.Status,
	}
	f.drivers[store.UUIDString(d.ID)] = d
	return d, nil
}

func (f *fakeQueries) GetDriverByID(_ context.Context, id pgtype.UUID) (store.Driver, error) {
	d, ok := f.drivers[store.UUIDString(id)]
	if !ok {
		return store.Driver{}, pgx.ErrNoRows
	}
	return d, nil
}

func (f *fakeQueries) ListDrivers(_ context.Context, status pgtype.Text, _, _ int32) ([]store.Driver, error) {
	var out []store.Driver
	for _, d := range f.drivers {
		if !status.Valid || d.Status == status.String {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeQueries) CountDrivers(ctx context.Context, status pgtype.Text) (int64, error) {
	drivers, err := f.ListDrivers(ctx, status, 0, 0)
	return int64(len(drivers)), err
}

func (f *fakeQueries) UpdateDriver(_ context.Context, arg store.UpdateDriverParams) (store.Driver, error) {
	d, ok := f.drivers[store.UUIDString(arg.ID)]
	if !ok {
		return store.Driver{}, pgx.ErrNoRows
	}
	d.Name, d.Phone, d.VehicleNo, d.Status = arg.Name, arg.Phone, arg.VehicleNo, arg.Status
	f.drivers[store.UUIDString(arg.ID)] = d
	return d, nil
}

func (f *fakeQueries) UpdateDriverStatus(_ context.Context, id pgtype.UUID, status string) (store.Driver, error) {
	d, ok := f.drivers[store.UUIDString(id)]
	if !ok {
		return store.Driver{}, pgx.ErrNoRows
	}
	d.Status = status
	f.drivers[store.UUIDString(id)] = d
	return d, nil
}

func (f *fakeQueries) UpdateDriverLocation(_ context.Context, id pgtype.UUID, lat, lon float64) (store.Driver, error) {
	d, ok := f.drivers[store.UUIDString(id)]
	if !ok {
		return store.Driver{}, pgx.ErrNoRows
	}
	d.Lat = pgtype.Float8{Float64: lat, Valid: true}
	d.Lon = pgtype.Float8{Float64: lon, Valid: true}
	f.drivers[store.UUIDString(id)] = d
	return d, nil
}

func (f *fakeQueries) ListLocatedDrivers(_ context.Context, status string) ([]store.Driver, error) {
	var out []store.Driver
	for _, d := range f.drivers {
		if d.Status == status && d.Lat.Valid && d.Lon.Valid {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeQueries) GetOrderByID(_ context.Context, id pgtype.UUID) (store.Order, error) {
	o, ok := f.orders[store.UUIDString(id)]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeQueries) AssignOrderDriver(_ context.Context, orderID, driverID pgtype.UUID) (store.Order, error) {
	o, ok := f.orders[store.UUIDString(orderID)]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	o.DriverID = driverID
	f.orders[store.UUIDString(orderID)] = o
	return o, nil
}

func (f *fakeQueries) ListOrdersByDriver(_ context.Context, driverID pgtype.UUID, _, _ int32) ([]store.Order, error) {
	var out []store.Order
	for _, o := range f.orders {
		if store.UUIDEqual(o.DriverID, driverID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeQueries) addDriver(status string, lat, lon float64) store.Driver {
	d := store.Driver{
		ID:     store.NewUUID(),
		Name:   "Ravi Kumar",
		Phone:  "9800000011",
		Status: status,
		Lat:    pgtype.Float8{Float64: lat, Valid: true},
		Lon:    pgtype.Float8{Float64: lon, Valid: true},
	}
	f.drivers[store.UUIDString(d.ID)] = d
	return d
}

func TestCreateValidatesPhone(t *testing.T) {
	t.Parallel()
	svc := &Service{Q: newFakeQueries()}
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Ravi", Phone: "12345"})
	require.ErrorIs(t, err, ErrInvalidPhone)

	_, err = svc.Create(ctx, CreateInput{Name: "Ravi", Phone: "5800000011"})
	require.ErrorIs(t, err, ErrInvalidPhone)

	d, err := svc.Create(ctx, CreateInput{Name: "Ravi", Phone: "9800000011", VehicleNo: "KA01AB1234"})
	require.NoError(t, err)
	require.Equal(t, StatusInactive, d.Status)
	require.Equal(t, "KA01AB1234", d.VehicleNo.String)
}

func TestUpdateLocationValidatesCoords(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	d := q.addDriver(StatusAvailable, 12.97, 77.59)
	svc := &Service{Q: q}
	ctx := context.Background()

	_, err := svc.UpdateLocation(ctx, d.ID, 91, 77.59)
	require.ErrorIs(t, err, ErrInvalidCoords)

	_, err = svc.UpdateLocation(ctx, d.ID, 12.97, 181)
	require.ErrorIs(t, err, ErrInvalidCoords)

	updated, err := svc.UpdateLocation(ctx, d.ID, 13.00, 77.60)
	require.NoError(t, err)
	require.InDelta(t, 13.00, updated.Lat.Float64, 1e-9)

	_, err = svc.UpdateLocation(ctx, store.NewUUID(), 12.97, 77.59)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNearbyFiltersAndSorts(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	// MG Road, Bengaluru as the search origin.
	near := q.addDriver(StatusAvailable, 12.9758, 77.6045)
	farther := q.addDriver(StatusAvailable, 12.93, 77.62)
	q.addDriver(StatusAvailable, 13.20, 77.70)  // outside a 5 km radius
	q.addDriver(StatusOnDelivery, 12.976, 77.605) // busy, excluded

	svc := &Service{Q: q}
	ctx := context.Background()

	_, err := svc.Nearby(ctx, 12.9758, 77.6045, 0)
	require.ErrorIs(t, err, ErrInvalidRadius)
	_, err = svc.Nearby(ctx, 12.9758, 77.6045, 51)
	require.ErrorIs(t, err, ErrInvalidRadius)
	_, err = svc.Nearby(ctx, 95, 77.6045, 5)
	require.ErrorIs(t, err, ErrInvalidCoords)

	found, err := svc.Nearby(ctx, 12.9758, 77.6045, 6)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, store.UUIDString(near.ID), store.UUIDString(found[0].Driver.ID))
	require.Equal(t, store.UUIDString(farther.ID), store.UUIDString(found[1].Driver.ID))
	require.Less(t, found[0].DistanceKM, found[1].DistanceKM)
}

func TestAssignRequiresAvailableDriverAndConfirmedOrder(t *testing.T) {
	t.Parallel()
	q := newFakeQueries()
	available := q.addDriver(StatusAvailable, 12.97, 77.59)
	busy := q.addDriver(StatusOnDelivery, 12.97, 77.59)

	confirmed := store.Order{ID: store.NewUUID(), Status: checkout.StatusConfirmed}
	pending := store.Order{ID: store.NewUUID(), Status: checkout.StatusPendingPayment}
	q.orders[store.UUIDString(confirmed.ID)] = confirmed
	q.orders[store.UUIDString(pending.ID)] = pending

	svc := &Service{Q: q}
	ctx := context.Background()

	_, err := svc.Assign(ctx, confirmed.ID, busy.ID)
	require.ErrorIs(t, err, ErrDriverUnavailable)

	_, err = svc.Assign(ctx, pending.ID, available.ID)
	require.ErrorIs(t, err, ErrOrderNotAssignable)

	_, err = svc.Assign(ctx, store.NewUUID(), available.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	assigned, err := svc.Assign(ctx, confirmed.ID, available.ID)
	require.NoError(t, err)
	require.True(t, store.UUIDEqual(assigned.DriverID, available.ID))

	driver, err := svc.Get(ctx, available.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOnDelivery, driver.Status)

	orders, err := svc.Orders(ctx, available.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestDistanceKM(t *testing.T) {
	t.Parallel()

	// Bengaluru MG Road to Indiranagar is roughly 4.6 km as the crow flies.
	d := DistanceKM(12.9758, 77.6045, 12.9719, 77.6412)
	require.InDelta(t, 4.0, d, 1.0)

	require.InDelta(t, 0, DistanceKM(12.9758, 77.6045, 12.9758, 77.6045), 1e-9)
}
