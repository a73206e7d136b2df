package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/user/climate-farm/internal/store"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// UserFromContext returns the authenticated account, if any
func UserFromContext(ctx context.Context) (store.User, bool) {
	user, ok := ctx.Value(userKey).(store.User)
	return user, ok
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so those may pass access_token in the query instead.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		if websocket.IsWebSocketUpgrade(r) {
			return r.URL.Query().Get("access_token")
		}
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// requireAuth rejects requests without a valid bearer token
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.accounts.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			if !errors.Is(err, store.ErrInvalidToken) {
				s.logger.Error("Failed to authenticate request", zap.Error(err))
			}
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// optionalAuth attaches the account when a valid token is present
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.accounts.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}
