package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token and returns the stable user ID it
// carries. Production wiring uses the Firebase verifier; tests substitute a
// stub.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (string, error)
}

type userKey string

const userIDKey userKey = "user_id"

// Auth authenticates every request with the external identity verifier and
// stores the resulting user ID in the request context. Interpretation and
// retry of verification failures is entirely the verifier's business; here
// they all map to 401.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization", http.StatusUnauthorized)
				return
			}
			userID, err := verifier.VerifyIDToken(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// UserIDFromContext returns the authenticated user ID, or "" when the request
// did not pass through Auth.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUserID attaches a user ID to the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
