package session

import (
	"context"
	"net/http"

	"github.com/vbhan/go-shop/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const sessionContextKey ContextKey = "session"

// Loader is a middleware that attaches the request's session to the context,
// creating an anonymous session for first-time visitors.
func (m *Manager) Loader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		s, err := m.Ensure(w, r)
		if err != nil {
			logger.Error("failed to load session", "error", err.Error())
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

// RequireAuth guards routes that need an authenticated session. Anything
// else is redirected to the login page.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if s == nil || !s.IsLoggedIn {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext extracts the session from the request context. Returns nil if
// the Loader middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}
