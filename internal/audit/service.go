package audit

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strings"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/obs"
	"github.com/quickkart/backend-grocer/internal/store"
)

// Queries defines the database access required for audit logging.
type Queries interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) (store.AuditLog, error)
	ListAuditLogs(ctx context.Context, limit, offset int32) ([]store.AuditLog, error)
}

// Service persists audit entries for admin actions. When disabled every call
// is a no-op, so routes can be wrapped unconditionally.
type Service struct {
	Q            Queries
	Enabled      bool
	SamplingRate float64
}

// Entry describes a single action to record.
type Entry struct {
	Action     string
	Resource   string
	ResourceID string
	Status     int
	Metadata   []byte
}

// Record writes one audit row, deriving the actor and request context from r.
func (s *Service) Record(ctx context.Context, r *http.Request, e Entry) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if r == nil {
		return errors.New("audit: request is required")
	}
	if s.Q == nil {
		return errors.New("audit: queries not configured")
	}

	arg := store.InsertAuditLogParams{
		Action:     actionFor(e.Action, r),
		Resource:   strings.TrimSpace(e.Resource),
		ResourceID: store.TextOrNull(e.ResourceID),
		Status:     int32(e.Status),
		IP:         store.TextOrNull(clientIP(r)),
		RequestID:  store.TextOrNull(r.Header.Get("X-Request-ID")),
		Metadata:   e.Metadata,
	}
	if arg.Resource == "" {
		arg.Resource = "unknown"
	}
	if arg.Status == 0 {
		arg.Status = http.StatusOK
	}
	if raw, ok := common.UserID(ctx); ok {
		if id, err := store.ToUUID(raw); err == nil {
			arg.ActorID = id
		}
	}
	if role, ok := common.UserRole(ctx); ok {
		arg.ActorRole = store.TextOrNull(role)
	}

	_, err := s.Q.InsertAuditLog(ctx, arg)
	return err
}

// List returns audit entries newest first.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]store.AuditLog, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("audit: queries not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Q.ListAuditLogs(ctx, limit, offset)
}

func actionFor(action string, r *http.Request) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	route := obs.RoutePatternFromContext(r.Context())
	if route == "" {
		route = r.URL.Path
	}
	return r.Method + " " + route
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
