package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service *Service
}

// RequireAuth enforces that a valid bearer token is present and stores the
// session on the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.authenticateRequest(r)
		if err != nil {
			if errors.Is(err, errNoToken) {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			common.RenderError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSession(r.Context(), session)))
	})
}

// RequireRole enforces that the authenticated session carries the given role.
// Administrators pass every role check.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := common.SessionFromContext(r.Context())
			if !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			if session.Role != role && !session.IsAdmin() {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) authenticateRequest(r *http.Request) (common.Session, error) {
	if m.Service == nil {
		return common.Session{}, errors.New("auth: service not configured")
	}
	token := extractBearer(r)
	if token == "" {
		return common.Session{}, errNoToken
	}
	return m.Service.ParseAccessToken(token)
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
