package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/outpost-labs/basecamp"
)

// CSRF validates anti-forgery tokens on state-changing requests.
//
// Handlers embed the paired token in forms with csrf.TemplateField.
// The Secure cookie flag follows the environment so local iteration
// over plain HTTP still works.
func CSRF(env basecamp.Environment, authKey []byte) Adapter {
	return Adapter(csrf.Protect(
		authKey,
		csrf.Secure(!(env.IsDevelopment() || env.IsTesting())),
		csrf.Path("/"),
	))
}

// CSRFExempt marks requests under pathPrefix as exempt from token validation,
// for endpoints driven by tooling rather than rendered forms.
//
// It must sit ahead of CSRF in the stack.
func CSRFExempt(pathPrefix string) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, pathPrefix) {
				r = csrf.UnsafeSkipCheck(r)
			}

			handler.ServeHTTP(w, r)
		})
	}
}
