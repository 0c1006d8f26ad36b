package httphandler

import (
	"net/http"
	"time"
)

const (
	// RefreshCookieName is the cookie carrying the refresh token. The token
	// never appears in a response body.
	RefreshCookieName = "refreshToken"
	// refreshCookiePath restricts the cookie to the auth endpoints.
	refreshCookiePath = "/auth"

	// DefaultRefreshCookieMaxAge matches the provider's default refresh token
	// lifetime.
	DefaultRefreshCookieMaxAge = 24 * time.Hour
)

// RefreshCookieOptions carries the deployment-dependent cookie attributes.
// Secure is only ever disabled for local development.
type RefreshCookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// SetRefreshCookie binds the rotated refresh token to the auth endpoints:
// HttpOnly keeps scripts away from it and SameSite=Strict keeps cross-site
// requests from carrying it.
func SetRefreshCookie(rw http.ResponseWriter, token string, options RefreshCookieOptions) {
	maxAge := options.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultRefreshCookieMaxAge
	}

	http.SetCookie(rw, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   options.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie expires the cookie with the same attributes it was set
// with. A negative MaxAge is how the standard library serializes Max-Age=0.
func ClearRefreshCookie(rw http.ResponseWriter, options RefreshCookieOptions) {
	http.SetCookie(rw, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   options.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
