package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/marinaops/staffdesk/auth"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// SessionFrom returns the session attached by RequireSession.
func SessionFrom(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(auth.Session)
	return s, ok
}

// RequireSession rejects requests without a valid "Authorization: Bearer" token.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error(), nil)
			return
		}
		s, err := h.Tokens.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error(), nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFrom(r.Context())
		if !ok || !s.IsAdmin {
			writeError(w, http.StatusForbidden, auth.ErrForbidden.Error(), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
