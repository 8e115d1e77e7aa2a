package session

import (
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
)

// CookieSettings contains cookie security settings derived from the public base URL.
type CookieSettings struct {
	// Secure indicates whether the cookie should only be sent over HTTPS.
	Secure bool
	// Domain is the cookie domain scope. Empty means host-only.
	Domain string
}

// DeriveCookieSettings determines cookie security settings from the base URL
// the front end is served on:
//   - http://localhost:3000          → Secure: false, Domain: ""
//   - https://app.bidzilla.example   → Secure: true,  Domain: ""
//
// The configCookieDomain parameter widens the scope explicitly (for example
// ".bidzilla.example" to share the session across subdomains).
func DeriveCookieSettings(baseURL string, configCookieDomain string) CookieSettings {
	return CookieSettings{
		Secure: isHTTPS(baseURL),
		Domain: configCookieDomain,
	}
}

// Options builds gorilla session options for the settings.
// SameSite is Lax so the session survives top-level navigation from links.
func (c CookieSettings) Options(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// isHTTPS determines if the given base URL uses HTTPS protocol.
// Returns true for HTTPS, false for HTTP, true for empty/invalid URLs (safe default).
func isHTTPS(baseURL string) bool {
	if baseURL == "" {
		return true
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return true
	}

	return parsedURL.Scheme != "http"
}
