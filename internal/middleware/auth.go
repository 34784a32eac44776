package middleware

import (
	"net/http"

	"mebelin-be/internal/auth"
	"mebelin-be/internal/cart"
	"mebelin-be/internal/transport"

	"github.com/google/uuid"
)

// ActorMiddleware resolves who owns the cart for this request: a valid
// bearer token makes a User, otherwise an X-Session-ID uuid makes a
// Guest. Requests with neither pass through anonymous; handlers that
// need an actor reject them.
func ActorMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if tokenStr := auth.ExtractAccessToken(r); tokenStr != "" {
				if id, err := auth.ParseToken(tokenStr, secret); err == nil {
					ctx = transport.WithActor(ctx, cart.User{ID: id.UserID})
					if id.Admin {
						ctx = transport.WithAdmin(ctx)
					}
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if sid := r.Header.Get("X-Session-ID"); sid != "" {
				if sessionID, err := uuid.Parse(sid); err == nil {
					ctx = transport.WithActor(ctx, cart.Guest{SessionID: sessionID})
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards the admin surface.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !transport.IsAdmin(r.Context()) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
