package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes admin CRUD for coupons.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

type couponPayload struct {
	Code         string `json:"code" validate:"required,min=3,max=32"`
	Description  string `json:"description"`
	Discount     int64  `json:"discount" validate:"gte=0"`
	FreeDelivery bool   `json:"freeDelivery"`
	MinSpend     int64  `json:"minSpend" validate:"gte=0"`
	ValidFrom    string `json:"validFrom"`
	ValidTo      string `json:"validTo"`
	UsageLimit   *int32 `json:"usageLimit" validate:"omitempty,gte=0"`
	PerUserLimit *int32 `json:"perUserLimit" validate:"omitempty,gte=0"`
	Active       bool   `json:"active"`
}

// List returns every coupon, active or not.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	coupons, err := h.Svc.Q.ListCoupons(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load coupons", nil)
		return
	}
	out := make([]map[string]any, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, couponJSON(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Create registers a new coupon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	params, ok := h.toCreateParams(w, payload)
	if !ok {
		return
	}
	created, err := h.Svc.Q.CreateCoupon(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "COUPON_EXISTS", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": couponJSON(created)})
}

// Update modifies an existing coupon. The code itself is immutable.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	id, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	validFrom, validTo, ok := h.parseWindow(w, payload)
	if !ok {
		return
	}
	updated, err := h.Svc.Q.UpdateCoupon(r.Context(), store.UpdateCouponParams{
		ID:           id,
		Description:  store.TextOrNull(payload.Description),
		Discount:     payload.Discount,
		FreeDelivery: payload.FreeDelivery,
		MinSpend:     payload.MinSpend,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		UsageLimit:   int4OrNull(payload.UsageLimit),
		PerUserLimit: int4OrNull(payload.PerUserLimit),
		Active:       payload.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": couponJSON(updated)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (couponPayload, bool) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return couponPayload{}, false
	}
	payload.Code = Normalize(payload.Code)
	if h.Validator != nil {
		if err := h.Validator.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return couponPayload{}, false
		}
	}
	return payload, true
}

func (h *Handler) toCreateParams(w http.ResponseWriter, payload couponPayload) (store.CreateCouponParams, bool) {
	validFrom, validTo, ok := h.parseWindow(w, payload)
	if !ok {
		return store.CreateCouponParams{}, false
	}
	return store.CreateCouponParams{
		Code:         payload.Code,
		Description:  store.TextOrNull(payload.Description),
		Discount:     payload.Discount,
		FreeDelivery: payload.FreeDelivery,
		MinSpend:     payload.MinSpend,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		UsageLimit:   int4OrNull(payload.UsageLimit),
		PerUserLimit: int4OrNull(payload.PerUserLimit),
		Active:       payload.Active,
	}, true
}

func (h *Handler) parseWindow(w http.ResponseWriter, payload couponPayload) (pgtype.Timestamptz, pgtype.Timestamptz, bool) {
	validFrom, err := parseTime(payload.ValidFrom)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid validFrom timestamp", nil)
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
	}
	validTo, err := parseTime(payload.ValidTo)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid validTo timestamp", nil)
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
	}
	if validFrom.Valid && validTo.Valid && validTo.Time.Before(validFrom.Time) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "validTo must be after validFrom", nil)
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}, false
	}
	return validFrom, validTo, true
}

func parseTime(value string) (pgtype.Timestamptz, error) {
	if value == "" {
		return pgtype.Timestamptz{}, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return pgtype.Timestamptz{}, err
	}
	return pgtype.Timestamptz{Time: ts, Valid: true}, nil
}

func int4OrNull(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}

func couponJSON(c store.Coupon) map[string]any {
	out := map[string]any{
		"id":           store.UUIDString(c.ID),
		"code":         c.Code,
		"discount":     c.Discount,
		"freeDelivery": c.FreeDelivery,
		"minSpend":     c.MinSpend,
		"usedCount":    c.UsedCount,
		"active":       c.Active,
	}
	if c.Description.Valid {
		out["description"] = c.Description.String
	}
	if c.ValidFrom.Valid {
		out["validFrom"] = c.ValidFrom.Time.Format(time.RFC3339)
	}
	if c.ValidTo.Valid {
		out["validTo"] = c.ValidTo.Time.Format(time.RFC3339)
	}
	if c.UsageLimit.Valid {
		out["usageLimit"] = c.UsageLimit.Int32
	}
	if c.PerUserLimit.Valid {
		out["perUserLimit"] = c.PerUserLimit.Int32
	}
	return out
}
