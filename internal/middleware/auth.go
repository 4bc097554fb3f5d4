package middleware

import (
	"net/http"

	"github.com/mwalcott/eventdesk/internal/auth"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "auth_token"

// RequireAdmin verifies the session token cookie and rejects requests whose
// token is missing, invalid, expired, or lacks the admin role. Authorization
// failures carry no body detail. On success the verified identity is placed
// in the request context.
func RequireAdmin(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			claims, err := auth.VerifyToken(cookie.Value, signingKey)
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if !claims.HasRole(auth.RoleAdmin) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID: userID,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
