package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
	"github.com/quickkart/backend-grocer/internal/weather"
)

// Handler wires checkout to HTTP. It resolves the weather verdict for the
// delivery address before handing off to the transactional service.
type Handler struct {
	Svc     *Service
	Weather *weather.Service
}

// Create places an order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	userID, err := store.ToUUID(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if in.AddressID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "addressId is required", nil)
		return
	}

	badWeather, notice := h.resolveWeather(r, userID, in.AddressID)
	out, err := h.Svc.Create(r.Context(), userID, badWeather, notice, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": orderJSON(out)})
}

func (h *Handler) resolveWeather(r *http.Request, userID pgtype.UUID, addressID string) (bool, string) {
	if h.Weather == nil || h.Svc == nil || h.Svc.Q == nil {
		return false, ""
	}
	id, err := store.ToUUID(addressID)
	if err != nil {
		return false, ""
	}
	addr, err := h.Svc.Q.GetAddressByID(r.Context(), id, userID)
	if err != nil {
		return false, ""
	}
	status := h.Weather.Status(r.Context(), addr.Lat, addr.Lon)
	return status.Bad, ""
}

func orderJSON(out Output) map[string]any {
	items := make([]map[string]any, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, map[string]any{
			"productId": store.UUIDString(it.ProductID),
			"name":      it.Name,
			"unit":      it.Unit,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
	}
	o := out.Order
	data := map[string]any{
		"orderId":       store.UUIDString(o.ID),
		"status":        o.Status,
		"paymentMethod": o.PaymentMethod,
		"items":         items,
		"pricing": map[string]any{
			"subtotal": o.Subtotal,
			"tax":      o.Tax,
			"delivery": map[string]any{
				"fee":           o.DeliveryFee,
				"free":          o.DeliveryFree,
				"weatherImpact": o.WeatherImpact,
			},
			"discount":       o.Discount,
			"discountCapped": o.DiscountCapped,
			"total":          o.Total,
			"totalDisplay":   pricing.FormatMoney(o.Total),
		},
	}
	if o.CouponCode.Valid {
		data["coupon"] = o.CouponCode.String
	}
	if o.WeatherNotice.Valid {
		data["weatherNotice"] = o.WeatherNotice.String
	}
	return data
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", err.Error(), nil)
	case errors.Is(err, ErrAddressNotFound):
		common.JSONError(w, http.StatusBadRequest, "ADDRESS_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidPaymentMethod):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYMENT_METHOD", err.Error(), nil)
	case errors.Is(err, ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrPerUserLimitReached),
		errors.Is(err, coupon.ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", err.Error(), nil)
	case errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
