package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/shared"
)

// Middleware wires bearer-token authentication for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.Service.Verify(r.Context(), BearerToken(r))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireAdmin rejects requests whose caller is not an admin. Missing or
// invalid credentials yield 401, a valid non-admin caller yields 403.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.Service.Verify(r.Context(), BearerToken(r))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if !id.Role.IsAdmin() {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// OptionalUser resolves the identity when a valid token is present but lets
// anonymous requests through. Used by public endpoints that personalize
// output, such as the survey detail with the caller's own vote.
func (m Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := m.Service.Verify(r.Context(), raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("optional auth rejected", slog.String("path", r.URL.Path))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
