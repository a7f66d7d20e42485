package middleware

import (
	"net/http"
	"time"
)

const (
	CartSessionCookie = "cart_session"
	AdminAuthCookie   = "admin_auth"
)

// CookieOptions controls the attributes shared by the storefront cookies.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// NewCookie builds an HttpOnly, SameSite=Lax cookie scoped to the whole site.
func NewCookie(name, value string, opts CookieOptions) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.MaxAge > 0 {
		cookie.MaxAge = int(opts.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(opts.MaxAge)
	}
	return cookie
}

// ExpiredCookie clears name on the client.
func ExpiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
