package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	pkgauth "github.com/angelmondragon/wholesale-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type adminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error)
}

// AdminAuth requires a valid, unrevoked admin session cookie.
func AdminAuth(authenticator adminAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
				return
			}

			token := cookieValue(r, AdminAuthCookie)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}

			claims, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAdminSession(WithAdmin(r.Context(), claims.Username), claims.ID)
			if logg != nil {
				ctx = logg.WithAdmin(ctx, claims.Username)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminToken returns the raw admin session cookie value.
func AdminToken(r *http.Request) string {
	return cookieValue(r, AdminAuthCookie)
}
