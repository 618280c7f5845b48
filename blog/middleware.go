// blog/middleware.go
package blog

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sessionKeyUserID = "authenticatedUserID"

// currentUserID returns the session's user id, or "" for anonymous
// requests.
func (h *Handlers) currentUserID(r *http.Request) string {
	return h.session.GetString(r.Context(), sessionKeyUserID)
}

func (h *Handlers) currentUser(r *http.Request) *User {
	id := h.currentUserID(r)
	if id == "" {
		return nil
	}
	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	u.Sanitize()
	return u
}

// requireAuth redirects anonymous requests to the login page, preserving
// the originally requested path in the next parameter.
func (h *Handlers) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.currentUserID(r) == "" {
			http.Redirect(w, r, "/auth/login/?next="+r.URL.RequestURI(), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// appendSlash mirrors the canonical-URL behavior of the routing table:
// every page route ends in a slash, so a slashless request is permanently
// redirected to its slashed form. Paths that look like files are left
// alone.
func appendSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if r.Method == http.MethodGet && !strings.HasSuffix(p, "/") && !strings.Contains(path.Base(p), ".") {
			target := p + "/"
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// recoverPanic turns an unhandled panic into the custom 500 page instead
// of a dropped connection.
func (h *Handlers) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.log.Error().Interface("panic", err).Str("path", r.URL.Path).Msg("recovered from panic")
				h.serverError(w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
