package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/tokencore/go-token-service/token"
	"github.com/tokencore/go-token-service/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the authenticated *users.User
const ContextKeyUser ContextKey = "current_user"

// CurrentUser returns the user attached to the request context by the auth
// gate, or nil for unprotected routes.
func CurrentUser(ctx context.Context) *users.User {
	user, _ := ctx.Value(ContextKeyUser).(*users.User)
	return user
}

// AuthGate classifies each request as protected or public by path prefix.
// Protected requests must carry a verifiable bearer access token resolving to
// an active user; public paths pass through with no token parsing at all.
func (s *Server) AuthGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isProtectedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.unauthorized(w, "Authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.unauthorized(w, "Invalid authentication scheme")
			return
		}

		data, err := s.codec.Verify(strings.TrimSpace(parts[1]), token.KindAccess)
		if err != nil {
			// Signature, expiry, and kind failures are indistinguishable
			// to the client.
			s.unauthorized(w, "Could not validate credentials")
			return
		}

		user, err := s.users.GetByID(r.Context(), data.UserID)
		if err != nil || !user.Active {
			s.unauthorized(w, "User not found or inactive")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) isProtectedPath(path string) bool {
	for _, prefix := range s.protectedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: detail})
}
