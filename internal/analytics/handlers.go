package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes admin analytics endpoints.
type Handler struct {
	Svc *Service
}

// Sales handles GET /api/v1/admin/analytics/sales?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "analytics service not configured", nil)
		return
	}
	from, ok := parseDate(w, r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := parseDate(w, r.URL.Query().Get("to"))
	if !ok {
		return
	}
	rows, err := h.Svc.SalesRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load sales analytics", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"day":     row.Day.Format("2006-01-02"),
			"orders":  row.Orders,
			"revenue": row.Revenue,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopProducts handles GET /api/v1/admin/analytics/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "analytics service not configured", nil)
		return
	}
	limit := queryInt32(r, "limit", 10)
	offset := queryInt32(r, "offset", 0)
	rows, err := h.Svc.TopProducts(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load top products", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"productId": store.UUIDString(row.ProductID),
			"name":      row.Name,
			"qtySold":   row.QtySold,
			"revenue":   row.Revenue,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "dates must use YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return t, true
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
