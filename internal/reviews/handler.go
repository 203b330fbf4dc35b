package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes product review endpoints.
type Handler struct {
	Svc *Service
}

type reviewPayload struct {
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

// Submit handles POST /api/v1/products/{id}/reviews.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	productID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	review, err := h.Svc.Submit(r.Context(), productID, userID, payload.Rating, payload.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrCommentTooLong):
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save review", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": reviewJSON(review)})
}

// List handles GET /api/v1/products/{id}/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
		return
	}
	productID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	limit := queryInt32(r, "limit", 10)
	offset := queryInt32(r, "offset", 0)
	reviews, err := h.Svc.List(r.Context(), productID, limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load reviews", nil)
		return
	}
	stats, err := h.Svc.Stats(r.Context(), productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load reviews", nil)
		return
	}
	out := make([]map[string]any, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, reviewJSON(review))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": map[string]any{
			"count":         stats.Count,
			"averageRating": stats.AverageRating,
		},
	})
}

// Delete handles DELETE /api/v1/reviews/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	reviewID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "review not found", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), reviewID, userID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to delete review", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "reviews service not configured", nil)
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

func reviewJSON(review store.Review) map[string]any {
	data := map[string]any{
		"id":        store.UUIDString(review.ID),
		"productId": store.UUIDString(review.ProductID),
		"rating":    review.Rating,
		"createdAt": review.CreatedAt.Time,
	}
	if review.Comment.Valid {
		data["comment"] = review.Comment.String
	}
	return data
}
