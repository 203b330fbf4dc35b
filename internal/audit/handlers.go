package audit

import (
	"net/http"
	"strconv"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Handler exposes the admin audit trail.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/admin/audit-logs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "audit service not configured", nil)
		return
	}
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)
	rows, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load audit logs", nil)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"id":       store.UUIDString(row.ID),
			"action":   row.Action,
			"resource": row.Resource,
			"status":   row.Status,
		}
		if row.ActorID.Valid {
			entry["actorId"] = store.UUIDString(row.ActorID)
		}
		if row.ActorRole.Valid {
			entry["actorRole"] = row.ActorRole.String
		}
		if row.ResourceID.Valid {
			entry["resourceId"] = row.ResourceID.String
		}
		if row.RequestID.Valid {
			entry["requestId"] = row.RequestID.String
		}
		if row.CreatedAt.Valid {
			entry["createdAt"] = row.CreatedAt.Time
		}
		out = append(out, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
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
