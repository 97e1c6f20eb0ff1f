package middleware

import (
	"net/http"
	"strings"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
)

// LogRequest logs the request's method, requested URL, and originating IP address
// using the enclosed implementation of logger.Logger.
//
// LogRequest scrubs the values for the following keys:
// - password
// - token
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uri := r.URL.Path
			q := r.URL.Query()
			for _, scrub := range []string{"password", "token"} {
				if val := q.Get(scrub); val != "" {
					q.Set(scrub, "xxxxxxx")
				}
			}

			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			strs := []string{r.Method, uri}
			if val, ok := r.Context().Value(basecamp.IpAddrKey).(string); ok {
				strs = append([]string{val}, strs...)
			}

			ls.Info(strings.Join(strs, " "), nil)
			h.ServeHTTP(w, r)
		})
	}
}
