package driver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes the admin fleet-management endpoints.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

type driverPayload struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Phone     string `json:"phone" validate:"required,len=10"`
	VehicleNo string `json:"vehicleNo" validate:"omitempty,max=20"`
	Status    string `json:"status"`
}

// List handles GET /api/v1/admin/drivers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver service not configured", nil)
		return
	}
	status := r.URL.Query().Get("status")
	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)
	drivers, total, err := h.Svc.List(r.Context(), status, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, driverJSON(d))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}})
}

// Get handles GET /api/v1/admin/drivers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": driverJSON(d)})
}

// Create handles POST /api/v1/admin/drivers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver service not configured", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.Create(r.Context(), CreateInput{
		Name:      payload.Name,
		Phone:     payload.Phone,
		VehicleNo: payload.VehicleNo,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "DRIVER_EXISTS", "driver phone already registered", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": driverJSON(d)})
}

// Update handles PATCH /api/v1/admin/drivers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.Update(r.Context(), id, UpdateInput{
		Name:      payload.Name,
		Phone:     payload.Phone,
		VehicleNo: payload.VehicleNo,
		Status:    payload.Status,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": driverJSON(d)})
}

// UpdateLocation handles POST /api/v1/admin/drivers/{id}/location.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	d, err := h.Svc.UpdateLocation(r.Context(), id, payload.Latitude, payload.Longitude)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": driverJSON(d)})
}

// Nearby handles GET /api/v1/admin/drivers/nearby.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver service not configured", nil)
		return
	}
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "lat and lon query parameters are required", nil)
		return
	}
	radius := 5.0
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid radius_km", nil)
			return
		}
		radius = parsed
	}
	nearby, err := h.Svc.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(nearby))
	for _, n := range nearby {
		entry := driverJSON(n.Driver)
		entry["distanceKm"] = n.DistanceKM
		out = append(out, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]any{
		"lat":      lat,
		"lon":      lon,
		"radiusKm": radius,
		"count":    len(out),
	}})
}

// Orders handles GET /api/v1/admin/drivers/{id}/orders.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	id, ok := h.driverID(w, r)
	if !ok {
		return
	}
	orders, err := h.Svc.Orders(r.Context(), id, queryInt32(r, "limit", 20), queryInt32(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, assignmentJSON(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Assign handles POST /api/v1/admin/orders/{id}/assign.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver service not configured", nil)
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var payload struct {
		DriverID string `json:"driverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	driverID, err := store.ToUUID(payload.DriverID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid driver id", nil)
		return
	}
	o, err := h.Svc.Assign(r.Context(), orderID, driverID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": assignmentJSON(o)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (driverPayload, bool) {
	var payload driverPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return driverPayload{}, false
	}
	if h.Validator != nil {
		if err := h.Validator.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return driverPayload{}, false
		}
	}
	return payload, true
}

func (h *Handler) driverID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver service not configured", nil)
		return pgtype.UUID{}, false
	}
	id, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid driver id", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidCoords), errors.Is(err, ErrInvalidRadius):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrDriverUnavailable):
		common.JSONError(w, http.StatusConflict, "DRIVER_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, ErrOrderNotAssignable):
		common.JSONError(w, http.StatusConflict, "ORDER_NOT_ASSIGNABLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "driver operation failed", nil)
	}
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}

func driverJSON(d store.Driver) map[string]any {
	data := map[string]any{
		"id":        store.UUIDString(d.ID),
		"name":      d.Name,
		"phone":     d.Phone,
		"status":    d.Status,
		"createdAt": d.CreatedAt.Time,
	}
	if d.VehicleNo.Valid {
		data["vehicleNo"] = d.VehicleNo.String
	}
	if d.Lat.Valid && d.Lon.Valid {
		data["location"] = map[string]any{
			"latitude":  d.Lat.Float64,
			"longitude": d.Lon.Float64,
		}
		if d.LocatedAt.Valid {
			data["locatedAt"] = d.LocatedAt.Time.Format(time.RFC3339)
		}
	}
	return data
}

func assignmentJSON(o store.Order) map[string]any {
	data := map[string]any{
		"orderId":      store.UUIDString(o.ID),
		"status":       o.Status,
		"total":        o.Total,
		"totalDisplay": pricing.FormatMoney(o.Total),
		"createdAt":    o.CreatedAt.Time,
	}
	if o.DriverID.Valid {
		data["driverId"] = store.UUIDString(o.DriverID)
	}
	return data
}
