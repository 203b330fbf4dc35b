package favorites

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes the saved-products endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/favorites.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	products, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load favorites", nil)
		return
	}
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Toggle handles POST /api/v1/favorites.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	productID, err := store.ToUUID(req.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	saved, err := h.Svc.Toggle(r.Context(), userID, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"favorited": saved}})
}

// Check handles GET /api/v1/favorites/{id}.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	productID, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	saved, err := h.Svc.Check(r.Context(), userID, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to check favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"favorited": saved}})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "favorites service not configured", nil)
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

func productJSON(p store.Product) map[string]any {
	data := map[string]any{
		"id":       store.UUIDString(p.ID),
		"name":     p.Name,
		"slug":     p.Slug,
		"category": p.Category,
		"unit":     p.Unit,
		"price":    p.Price,
		"mrp":      p.MRP,
		"inStock":  p.Stock > 0,
	}
	if p.ImageURL.Valid {
		data["imageUrl"] = p.ImageURL.String
	}
	return data
}
