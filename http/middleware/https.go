package middleware

import (
	"net/http"
	"net/url"

	"github.com/outpost-labs/basecamp"
)

// hstsHeader instructs browsers to pin HTTPS for two years.
const hstsHeader = "max-age=63072000; includeSubDomains"

// ForceHTTPS redirects HTTP requests to HTTPS unless the environment is
// development or testing.
//
// The "X-Forwarded-Proto" header is used to check whether HTTP was requested,
// due to a basecamp application running behind a platform proxy.
func ForceHTTPS(env basecamp.Environment) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Forwarded-Proto") == "https" || env.IsDevelopment() || env.IsTesting() {
				handler.ServeHTTP(w, r)
				return
			}

			u := new(url.URL)
			*u = *r.URL
			u.Scheme = "https"
			u.Host = r.Host

			http.Redirect(w, r, u.String(), http.StatusPermanentRedirect)
		})
	}
}

// HSTS sets the Strict-Transport-Security header on every response.
//
// Include only in deployed environments; a localhost app pinning HSTS
// poisons the developer's browser.
func HSTS() Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Strict-Transport-Security", hstsHeader)
			handler.ServeHTTP(w, r)
		})
	}
}
