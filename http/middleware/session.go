package middleware

import (
	"context"
	"net/http"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
)

// InjectSession stores the session associated with the *http.Request in *http.Request.Context.
//
// If store is nil, NoopAdapter returns and this middleware does nothing.
func InjectSession(store session.Store, key basecamp.Key) Adapter {
	if store == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := store.GetSession(r)
			ctx := context.WithValue(r.Context(), key, s)
			h.ServeHTTP(w, r.Clone(ctx))
		})
	}
}
