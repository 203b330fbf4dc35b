package driver

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Driver statuses.
const (
	StatusInactive   = "INACTIVE"
	StatusAvailable  = "AVAILABLE"
	StatusOnDelivery = "ON_DELIVERY"
)

const maxNearbyRadiusKM = 50.0

var (
	// ErrNotFound indicates the driver does not exist.
	ErrNotFound = errors.New("driver not found")
	// ErrOrderNotFound indicates the order to assign does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidPhone is returned for phone numbers outside the Indian mobile format.
	ErrInvalidPhone = errors.New("invalid Indian phone number")
	// ErrInvalidStatus is returned for unknown driver statuses.
	ErrInvalidStatus = errors.New("invalid driver status")
	// ErrInvalidCoords is returned for out-of-range coordinates.
	ErrInvalidCoords = errors.New("invalid coordinates")
	// ErrInvalidRadius is returned when the search radius is out of range.
	ErrInvalidRadius = errors.New("radius must be between 0 and 50 km")
	// ErrDriverUnavailable is returned when assigning an order to a driver not available for pickup.
	ErrDriverUnavailable = errors.New("driver is not available")
	// ErrOrderNotAssignable is returned when the order is not ready for dispatch.
	ErrOrderNotAssignable = errors.New("order is not ready for dispatch")
)

// Indian mobile numbers: ten digits starting 6-9.
var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

var knownStatus = map[string]bool{
	StatusInactive:   true,
	StatusAvailable:  true,
	StatusOnDelivery: true,
}

// Queries is the subset of the store the driver feature needs.
type Queries interface {
	CreateDriver(ctx context.Context, arg store.CreateDriverParams) (store.Driver, error)
	GetDriverByID(ctx context.Context, id pgtype.UUID) (store.Driver, error)
	ListDrivers(ctx context.Context, status pgtype.Text, limit, offset int32) ([]store.Driver, error)
	CountDrivers(ctx context.Context, status pgtype.Text) (int64, error)
	UpdateDriver(ctx context.Context, arg store.UpdateDriverParams) (store.Driver, error)
	UpdateDriverStatus(ctx context.Context, id pgtype.UUID, status string) (store.Driver, error)
	UpdateDriverLocation(ctx context.Context, id pgtype.UUID, lat, lon float64) (store.Driver, error)
	ListLocatedDrivers(ctx context.Context, status string) ([]store.Driver, error)
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	AssignOrderDriver(ctx context.Context, orderID, driverID pgtype.UUID) (store.Order, error)
	ListOrdersByDriver(ctx context.Context, driverID pgtype.UUID, limit, offset int32) ([]store.Order, error)
}

// Service manages the delivery-agent fleet.
type Service struct {
	Q Queries
}

// CreateInput carries the fields accepted when registering a driver.
type CreateInput struct {
	Name      string
	Phone     string
	VehicleNo string
}

// Create registers a new driver. Drivers start inactive until an operator
// activates them.
func (s *Service) Create(ctx context.Context, in CreateInput) (store.Driver, error) {
	if s == nil || s.Q == nil {
		return store.Driver{}, errors.New("driver service not configured")
	}
	if !phonePattern.MatchString(in.Phone) {
		return store.Driver{}, ErrInvalidPhone
	}
	return s.Q.CreateDriver(ctx, store.CreateDriverParams{
		Name:      in.Name,
		Phone:     in.Phone,
		VehicleNo: store.TextOrNull(in.VehicleNo),
		Status:    StatusInactive,
	})
}

// Get loads a single driver.
func (s *Service) Get(ctx context.Context, id pgtype.UUID) (store.Driver, error) {
	if s == nil || s.Q == nil {
		return store.Driver{}, errors.New("driver service not configured")
	}
	d, err := s.Q.GetDriverByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Driver{}, ErrNotFound
		}
		return store.Driver{}, err
	}
	return d, nil
}

// List returns a page of drivers, optionally filtered by status, plus the
// total matching count.
func (s *Service) List(ctx context.Context, status string, limit, offset int32) ([]store.Driver, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("driver service not configured")
	}
	if status != "" && !knownStatus[status] {
		return nil, 0, ErrInvalidStatus
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	filter := store.TextOrNull(status)
	drivers, err := s.Q.ListDrivers(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountDrivers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

// UpdateInput carries the mutable driver fields.
type UpdateInput struct {
	Name      string
	Phone     string
	VehicleNo string
	Status    string
}

// Update replaces a driver's details.
func (s *Service) Update(ctx context.Context, id pgtype.UUID, in UpdateInput) (store.Driver, error) {
	if s == nil || s.Q == nil {
		return store.Driver{}, errors.New("driver service not configured")
	}
	if !phonePattern.MatchString(in.Phone) {
		return store.Driver{}, ErrInvalidPhone
	}
	if !knownStatus[in.Status] {
		return store.Driver{}, ErrInvalidStatus
	}
	d, err := s.Q.UpdateDriver(ctx, store.UpdateDriverParams{
		ID:        id,
		Name:      in.Name,
		Phone:     in.Phone,
		VehicleNo: store.TextOrNull(in.VehicleNo),
		Status:    in.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Driver{}, ErrNotFound
		}
		return store.Driver{}, err
	}
	return d, nil
}

// UpdateLocation records the driver's current position.
func (s *Service) UpdateLocation(ctx context.Context, id pgtype.UUID, lat, lon float64) (store.Driver, error) {
	if s == nil || s.Q == nil {
		return store.Driver{}, errors.New("driver service not configured")
	}
	if !validCoords(lat, lon) {
		return store.Driver{}, ErrInvalidCoords
	}
	d, err := s.Q.UpdateDriverLocation(ctx, id, lat, lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Driver{}, ErrNotFound
		}
		return store.Driver{}, err
	}
	return d, nil
}

// NearbyDriver pairs a driver with its distance from the search point.
type NearbyDriver struct {
	Driver     store.Driver
	DistanceKM float64
}

// Nearby returns available drivers within radiusKM of the point, closest
// first.
func (s *Service) Nearby(ctx context.Context, lat, lon, radiusKM float64) ([]NearbyDriver, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("driver service not configured")
	}
	if !validCoords(lat, lon) {
		return nil, ErrInvalidCoords
	}
	if radiusKM <= 0 || radiusKM > maxNearbyRadiusKM {
		return nil, ErrInvalidRadius
	}
	candidates, err := s.Q.ListLocatedDrivers(ctx, StatusAvailable)
	if err != nil {
		return nil, err
	}
	out := make([]NearbyDriver, 0, len(candidates))
	for _, d := range candidates {
		if !d.Lat.Valid || !d.Lon.Valid {
			continue
		}
		dist := DistanceKM(lat, lon, d.Lat.Float64, d.Lon.Float64)
		if dist <= radiusKM {
			out = append(out, NearbyDriver{Driver: d, DistanceKM: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })
	return out, nil
}

// Orders returns orders assigned to the driver, newest first.
func (s *Service) Orders(ctx context.Context, driverID pgtype.UUID, limit, offset int32) ([]store.Order, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("driver service not configured")
	}
	if _, err := s.Get(ctx, driverID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListOrdersByDriver(ctx, driverID, limit, offset)
}

// Assign dispatches a confirmed order to an available driver. The driver
// moves to ON_DELIVERY.
func (s *Service) Assign(ctx context.Context, orderID, driverID pgtype.UUID) (store.Order, error) {
	if s == nil || s.Q == nil {
		return store.Order{}, errors.New("driver service not configured")
	}
	d, err := s.Get(ctx, driverID)
	if err != nil {
		return store.Order{}, err
	}
	if d.Status != StatusAvailable {
		return store.Order{}, ErrDriverUnavailable
	}
	o, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, ErrOrderNotFound
		}
		return store.Order{}, err
	}
	if o.Status != checkout.StatusConfirmed {
		return store.Order{}, ErrOrderNotAssignable
	}
	assigned, err := s.Q.AssignOrderDriver(ctx, orderID, driverID)
	if err != nil {
		return store.Order{}, err
	}
	if _, err := s.Q.UpdateDriverStatus(ctx, driverID, StatusOnDelivery); err != nil {
		return store.Order{}, err
	}
	return assigned, nil
}
