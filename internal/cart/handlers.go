package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
	"github.com/quickkart/backend-grocer/internal/weather"
)

// AddressQueries resolves the delivery location used for the weather lookup.
type AddressQueries interface {
	GetDefaultAddress(ctx context.Context, userID pgtype.UUID) (store.Address, error)
}

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc       *Service
	Weather   *weather.Service
	Addresses AddressQueries
	Currency  string
}

// Get returns cart contents and a priced quote.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	badWeather, notice := h.resolveWeather(r, userID)
	quote, err := h.Svc.Totals(r.Context(), userID, badWeather)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.quoteJSON(quote, notice)})
}

// AddItem adds or increments a cart line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var payload struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if payload.Qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), userID, payload.ProductID, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": itemJSON(item)})
}

// UpdateItem sets the quantity for a cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	item, err := h.Svc.UpdateQty(r.Context(), userID, chi.URLParam(r, "itemId"), payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": itemJSON(item)})
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), userID, chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Clear(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon validates and attaches a coupon code to the cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	applied, err := h.Svc.ApplyCoupon(r.Context(), userID, payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":         applied.Code,
		"discount":     applied.Discount,
		"freeDelivery": applied.FreeDelivery,
	}})
}

// RemoveCoupon clears the applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveCoupon(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"coupon": nil}})
}

// resolveWeather determines the bad-weather flag for the request. Explicit
// lat/lon query params win; otherwise the user's default address is used. With
// neither available the quote assumes good weather.
func (h *Handler) resolveWeather(r *http.Request, userID pgtype.UUID) (bool, string) {
	if h.Weather == nil {
		return false, ""
	}
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		if h.Addresses == nil {
			return false, ""
		}
		addr, err := h.Addresses.GetDefaultAddress(r.Context(), userID)
		if err != nil {
			return false, ""
		}
		lat, lon = addr.Lat, addr.Lon
	}
	status := h.Weather.Status(r.Context(), lat, lon)
	return status.Bad, ""
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	id, err := store.ToUUID(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return pgtype.UUID{}, false
	}
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return pgtype.UUID{}, false
	}
	return id, true
}

func (h *Handler) quoteJSON(q Quote, weatherNotice string) map[string]any {
	items := make([]map[string]any, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, itemJSON(it))
	}
	delivery := map[string]any{
		"fee":           q.Summary.Delivery.Fee,
		"free":          q.Summary.Delivery.Free,
		"displayText":   q.Summary.Delivery.Display,
		"weatherImpact": q.Summary.Delivery.WeatherImpact,
	}
	if q.Summary.Delivery.WeatherMessage != "" {
		delivery["weatherMessage"] = q.Summary.Delivery.WeatherMessage
	} else if weatherNotice != "" {
		delivery["weatherMessage"] = weatherNotice
	}
	data := map[string]any{
		"items": items,
		"pricing": map[string]any{
			"subtotal":       q.Summary.Subtotal,
			"tax":            q.Summary.Tax,
			"delivery":       delivery,
			"discount":       q.Summary.Discount,
			"discountCapped": q.Summary.DiscountCapped,
			"total":          q.Summary.Total,
			"totalDisplay":   pricing.FormatMoney(q.Summary.Total),
		},
		"currency": h.Currency,
	}
	if q.CouponCode != "" {
		data["coupon"] = q.CouponCode
	}
	if q.CouponErr != nil {
		data["couponError"] = q.CouponErr.Error()
	}
	return data
}

func itemJSON(it store.CartItem) map[string]any {
	return map[string]any{
		"id":        store.UUIDString(it.ID),
		"productId": store.UUIDString(it.ProductID),
		"name":      it.Name,
		"unit":      it.Unit,
		"qty":       it.Qty,
		"unitPrice": it.UnitPrice,
		"subtotal":  it.Subtotal,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
	case errors.Is(err, ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", err.Error(), nil)
	case errors.Is(err, ErrProductUnavailable):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrPerUserLimitReached),
		errors.Is(err, coupon.ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
