package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// CartSession reads the anonymous cart session cookie, minting a new session
// id when it is missing or malformed, and seeds the request context with it.
// Requests that can change the cart re-issue the cookie so its lifetime
// follows the stored cart, whose TTL is refreshed on every save.
func CartSession(opts CookieOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := cookieValue(r, CartSessionCookie)
			_, err := uuid.Parse(sessionID)
			if err != nil {
				sessionID = uuid.NewString()
			}
			if err != nil || mutates(r.Method) {
				http.SetCookie(w, NewCookie(CartSessionCookie, sessionID, opts))
			}

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func mutates(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
