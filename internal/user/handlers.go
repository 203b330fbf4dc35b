package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes the authenticated user's address book.
type Handler struct {
	Q         *store.Queries
	Validator *validator.Validate
}

type addressPayload struct {
	Label     string  `json:"label" validate:"required,min=1,max=40"`
	Line1     string  `json:"line1" validate:"required,min=3,max=120"`
	Line2     string  `json:"line2" validate:"max=120"`
	City      string  `json:"city" validate:"required,min=2,max=60"`
	Pincode   string  `json:"pincode" validate:"required,len=6,numeric"`
	Lat       float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon       float64 `json:"lon" validate:"gte=-180,lte=180"`
	IsDefault bool    `json:"isDefault"`
}

// ListAddresses returns the user's addresses, default first.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	addresses, err := h.Q.ListAddressesByUser(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load addresses", nil)
		return
	}
	out := make([]map[string]any, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, addressJSON(a))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// CreateAddress adds an address. Marking it default clears any previous default.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	if payload.IsDefault {
		if err := h.Q.ClearDefaultAddress(r.Context(), userID); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save address", nil)
			return
		}
	}
	created, err := h.Q.CreateAddress(r.Context(), store.CreateAddressParams{
		UserID:    userID,
		Label:     payload.Label,
		Line1:     payload.Line1,
		Line2:     store.TextOrNull(payload.Line2),
		City:      payload.City,
		Pincode:   payload.Pincode,
		Lat:       payload.Lat,
		Lon:       payload.Lon,
		IsDefault: payload.IsDefault,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save address", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": addressJSON(created)})
}

// UpdateAddress replaces an address the user owns.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	if payload.IsDefault {
		if err := h.Q.ClearDefaultAddress(r.Context(), userID); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save address", nil)
			return
		}
	}
	updated, err := h.Q.UpdateAddress(r.Context(), store.UpdateAddressParams{
		ID:        id,
		UserID:    userID,
		Label:     payload.Label,
		Line1:     payload.Line1,
		Line2:     store.TextOrNull(payload.Line2),
		City:      payload.City,
		Pincode:   payload.Pincode,
		Lat:       payload.Lat,
		Lon:       payload.Lon,
		IsDefault: payload.IsDefault,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save address", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addressJSON(updated)})
}

// DeleteAddress removes an address the user owns.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
		return
	}
	if err := h.Q.DeleteAddress(r.Context(), id, userID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to delete address", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (addressPayload, bool) {
	var payload addressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return payload, false
	}
	if h.Validator != nil {
		if err := h.Validator.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return payload, false
		}
	}
	return payload, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user service not configured", nil)
		return pgtype.UUID{}, false
	}
	raw, found := common.UserID(r.Context())
	if !found || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	id, err := store.ToUUID(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func addressJSON(a store.Address) map[string]any {
	data := map[string]any{
		"id":        store.UUIDString(a.ID),
		"label":     a.Label,
		"line1":     a.Line1,
		"city":      a.City,
		"pincode":   a.Pincode,
		"lat":       a.Lat,
		"lon":       a.Lon,
		"isDefault": a.IsDefault,
	}
	if a.Line2.Valid {
		data["line2"] = a.Line2.String
	}
	return data
}
