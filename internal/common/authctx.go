package common

import "context"

type ctxKey string

const sessionKey ctxKey = "auth/session"

// Session carries the authenticated caller's identity through request context.
type Session struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == "admin"
}

// WithSession stores the authenticated session on the provided context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext extracts the authenticated session from the context if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}
