package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Recorder wraps admin routes so each completed request becomes an audit row.
type Recorder struct {
	Service *Service
	Logger  zerolog.Logger
}

// Middleware records one entry per request for the named resource. When
// idParam is non-empty the chi URL parameter of that name becomes the
// resource id. Recording failures are logged, never surfaced to the client.
func (rec Recorder) Middleware(resource, idParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rec.Service == nil || !rec.Service.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			entry := Entry{Resource: resource, Status: sw.Status()}
			if idParam != "" {
				entry.ResourceID = chi.URLParam(r, idParam)
			}
			if err := rec.Service.Record(r.Context(), r, entry); err != nil {
				rec.Logger.Warn().Err(err).Str("resource", resource).Msg("audit record failed")
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
