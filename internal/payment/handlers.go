package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 64 << 10

// Handler serves payment intent and webhook endpoints.
type Handler struct {
	Svc *Service
}

// CreateIntent opens (or returns the live) payment intent for an order.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	orderID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	intent, err := h.Svc.CreateIntent(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": intentJSON(intent)})
}

// Get returns the latest intent for an order.
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
	record, err := h.Svc.GetForOrder(r.Context(), orderID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": intentJSON(Intent{Record: record})})
}

// Webhook receives provider settlement notifications. The body is verified
// against the shared secret before anything is parsed.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body", nil)
		return
	}
	if !VerifySignature(h.Svc.WebhookSecret, body, r.Header.Get(SignatureHeader)) {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook signature mismatch", nil)
		return
	}
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.Settle(r.Context(), evt); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"received": true}})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "payment service not configured", nil)
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

func intentJSON(intent Intent) map[string]any {
	rec := intent.Record
	data := map[string]any{
		"intentId": store.UUIDString(rec.ID),
		"orderId":  store.UUIDString(rec.OrderID),
		"provider": rec.Provider,
		"channel":  rec.Channel,
		"status":   rec.Status,
		"amount":   rec.Amount,
	}
	if rec.ProviderRef.Valid {
		data["providerRef"] = rec.ProviderRef.String
	}
	if rec.ExpiresAt.Valid {
		data["expiresAt"] = rec.ExpiresAt.Time
	}
	if intent.RedirectURL != "" {
		data["redirectUrl"] = intent.RedirectURL
	}
	return data
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrIntentNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrOrderNotPayable):
		common.JSONError(w, http.StatusConflict, "ORDER_NOT_PAYABLE", err.Error(), nil)
	case errors.Is(err, ErrIntentSettled):
		common.JSONError(w, http.StatusConflict, "ALREADY_SETTLED", err.Error(), nil)
	case errors.Is(err, ErrIntentExpired):
		common.JSONError(w, http.StatusGone, "INTENT_EXPIRED", err.Error(), nil)
	case errors.Is(err, ErrHighRisk):
		common.JSONError(w, http.StatusForbidden, "PAYMENT_BLOCKED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
