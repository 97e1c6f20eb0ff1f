package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/outpost-labs/basecamp"
)

// RequestID adds a uuid to the request context.
func RequestID(key basecamp.Key) Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, uuid.NewString())
			h.ServeHTTP(w, r.Clone(ctx))
		})
	}
}
