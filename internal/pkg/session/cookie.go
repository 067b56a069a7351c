// internal/pkg/session/cookie.go
package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the only place a session token is read from or written to.
const CookieName = "token"

// Cookie writes and clears the session cookie. Secure should be true whenever
// the service is reached over TLS.
type Cookie struct {
	Secure bool
}

// Set stores token in the session cookie until expiresAt.
func (c Cookie) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, c.build(token, expiresAt, maxAge))
}

// Clear overwrites the session cookie with an already-expired one carrying
// the same name, path and flags.
func (c Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.build("", time.Unix(0, 0).UTC(), -1))
}

func (c Cookie) build(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromRequest returns the session token carried by r, if any.
func TokenFromRequest(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(ck.Value)
	return token, token != ""
}
