package controllers

import (
	"context"
	"net/http"

	"scoresheet_server/services"

	"github.com/gorilla/mux"
)

// SessionCookie carries the authenticated identity issued by the external
// auth service.
const SessionCookie = "session"

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware extracts the authenticated identity from the session cookie
// and puts it on the request context. Requests without a valid identity are
// rejected; issuing identities (login) is not this server's job.
func AuthMiddleware(tokens *services.TokenService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			userID, err := tokens.ParseSessionToken(cookie.Value)
			if err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity stored by AuthMiddleware
func IdentityFrom(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(string); ok {
		return id
	}
	return ""
}
