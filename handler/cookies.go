package handler

import (
	"go-medstore-api/model"
	"net/http"
	"time"
)

const (
	refreshCookieName = "refreshToken"
	csrfCookieName    = "csrf-token"
	csrfHeaderName    = "X-CSRF-Token"
)

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Secure     bool
	RefreshTTL time.Duration
}

// csrfMeta is returned in the response meta so the client can echo the token.
type csrfMeta struct {
	CSRFToken string `json:"csrfToken"`
}

func (c CookieConfig) setRefresh(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c CookieConfig) setCSRF(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// setSession writes both session cookies after a login or email verification.
func (c CookieConfig) setSession(w http.ResponseWriter, pair model.TokenPair, csrfToken string) {
	c.setRefresh(w, pair.RefreshToken)
	c.setCSRF(w, csrfToken)
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	for _, name := range []string{refreshCookieName, csrfCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
