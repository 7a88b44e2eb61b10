package http

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the browser's access token.
const SessionCookieName = "vyxlo_session"

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Set in production.
	Secure bool
	// MaxAge matches the access token lifetime.
	MaxAge time.Duration
}

func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the cookie immediately. MaxAge -1 is written
// as "Max-Age=0".
func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
