// Package middleware provides the request-processing stages a basecamp
// application chains in front of its handlers.
package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// An Adapter allows chaining middlewares together.
type Adapter func(http.Handler) http.Handler

// NoopAdapter hands the request off without doing anything.
func NoopAdapter(h http.Handler) http.Handler { return h }

// Chain glues the set of adapters to the handler.
func Chain(handler http.Handler, adapters ...Adapter) http.Handler {
	// NOTE: Loop in reverse to preserve middleware order
	for i := len(adapters) - 1; i >= 0; i-- {
		handler = adapters[i](handler)
	}

	return handler
}

// ProxyHeaders rewrites the request's remote address and scheme from
// X-Forwarded-* headers, which is how platform load balancers hand
// requests to the app.
func ProxyHeaders() Adapter { return handlers.ProxyHeaders }
