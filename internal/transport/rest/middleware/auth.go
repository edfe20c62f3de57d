package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"watchtogether/internal/service"
)

type contextKey string

const (
	CreatorUsernameKey contextKey = "creatorUsername"
	RoomCodeKey        contextKey = "roomCode"
)

// AuthMiddleware validates room-scoped creator tokens
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireCreator validates the creator JWT from the Authorization header and
// checks it was issued for the room in the URL.
func (m *AuthMiddleware) RequireCreator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateCreatorToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		if code := mux.Vars(r)["code"]; code != "" && code != claims.RoomCode {
			http.Error(w, `{"error":"token not valid for this room"}`, http.StatusForbidden)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, CreatorUsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoomCodeKey, claims.RoomCode)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCreatorUsername extracts the creator username from context
func GetCreatorUsername(ctx context.Context) string {
	if v := ctx.Value(CreatorUsernameKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
