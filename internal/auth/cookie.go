package auth

import (
	"net/http"
	"time"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	// Production enables Secure and SameSite=None so the cookie survives
	// cross-site requests from the hosted frontend.
	Production bool
	// TTL sets Max-Age. Zero leaves a browser-session cookie.
	TTL time.Duration
}

// SetTokenCookie writes the session cookie.
func SetTokenCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Production,
		SameSite: sameSite(opts.Production),
	}
	if opts.TTL > 0 {
		cookie.MaxAge = int(opts.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
}

// ClearTokenCookie expires the session cookie on the client. The token itself
// stays valid until it expires.
func ClearTokenCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Production,
		SameSite: sameSite(opts.Production),
	})
}

// TokenFromRequest returns the session token cookie value, or "" when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func sameSite(production bool) http.SameSite {
	if production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}
