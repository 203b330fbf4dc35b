package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes public catalogue endpoints plus admin product CRUD.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params, err := h.Svc.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	items, err := h.Svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	categories, err := h.Svc.Categories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// ProductDetail handles GET /api/v1/products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	item, err := h.Svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

type productPayload struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,min=2,max=60"`
	Unit        string `json:"unit" validate:"required,min=1,max=20"`
	Price       int64  `json:"price" validate:"gt=0"`
	MRP         int64  `json:"mrp" validate:"gte=0"`
	Stock       int32  `json:"stock" validate:"gte=0"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	Active      bool   `json:"active"`
}

// CreateProduct handles POST /api/v1/admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.Svc.Q.CreateProduct(r.Context(), store.CreateProductParams{
		Name:        payload.Name,
		Slug:        Slugify(payload.Name),
		Description: store.TextOrNull(payload.Description),
		Category:    payload.Category,
		Unit:        payload.Unit,
		Price:       payload.Price,
		MRP:         normalizeMRP(payload),
		Stock:       payload.Stock,
		ImageURL:    store.TextOrNull(payload.ImageURL),
		Active:      payload.Active,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "PRODUCT_EXISTS", "a product with this name already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to create product", nil)
		return
	}
	h.Svc.invalidate(r.Context(), created.Slug)
	common.JSON(w, http.StatusCreated, map[string]any{"data": toItem(created)})
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}. The slug is immutable.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, err := store.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.Svc.Q.UpdateProduct(r.Context(), store.UpdateProductParams{
		ID:          id,
		Name:        payload.Name,
		Description: store.TextOrNull(payload.Description),
		Category:    payload.Category,
		Unit:        payload.Unit,
		Price:       payload.Price,
		MRP:         normalizeMRP(payload),
		Stock:       payload.Stock,
		ImageURL:    store.TextOrNull(payload.ImageURL),
		Active:      payload.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update product", nil)
		return
	}
	h.Svc.invalidate(r.Context(), updated.Slug)
	common.JSON(w, http.StatusOK, map[string]any{"data": toItem(updated)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (productPayload, bool) {
	var payload productPayload
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

// normalizeMRP keeps the strike-through price at or above the selling price.
func normalizeMRP(p productPayload) int64 {
	if p.MRP < p.Price {
		return p.Price
	}
	return p.MRP
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
