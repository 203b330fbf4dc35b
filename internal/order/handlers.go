package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/pricing"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler serves order history and lifecycle endpoints.
type Handler struct {
	Svc *Service
}

// List returns the authenticated user's orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)
	orders, err := h.Svc.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderSummaryJSON(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Get returns a single order with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	detail, err := h.Svc.Get(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detailJSON(detail)})
}

// Cancel cancels the user's order if it has not gone out for delivery.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	o, err := h.Svc.Cancel(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderSummaryJSON(o)})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order along the fulfilment flow. Admin only.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderSummaryJSON(o)})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
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

func orderSummaryJSON(o store.Order) map[string]any {
	data := map[string]any{
		"orderId":       store.UUIDString(o.ID),
		"status":        o.Status,
		"paymentMethod": o.PaymentMethod,
		"subtotal":      o.Subtotal,
		"tax":           o.Tax,
		"delivery": map[string]any{
			"fee":           o.DeliveryFee,
			"free":          o.DeliveryFree,
			"weatherImpact": o.WeatherImpact,
		},
		"discount":       o.Discount,
		"discountCapped": o.DiscountCapped,
		"total":          o.Total,
		"totalDisplay":   pricing.FormatMoney(o.Total),
		"createdAt":      o.CreatedAt.Time,
	}
	if o.CouponCode.Valid {
		data["coupon"] = o.CouponCode.String
	}
	if o.WeatherNotice.Valid {
		data["weatherNotice"] = o.WeatherNotice.String
	}
	if o.DriverID.Valid {
		data["driverId"] = store.UUIDString(o.DriverID)
	}
	return data
}

func detailJSON(d Detail) map[string]any {
	items := make([]map[string]any, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, map[string]any{
			"productId": store.UUIDString(it.ProductID),
			"name":      it.Name,
			"unit":      it.Unit,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
	}
	data := orderSummaryJSON(d.Order)
	data["items"] = items
	return data
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrNotCancellable):
		common.JSONError(w, http.StatusConflict, "NOT_CANCELLABLE", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_STATUS", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
