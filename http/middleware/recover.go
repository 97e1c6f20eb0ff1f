package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
)

// CatchPanic is the global exception handler.
//
// In development, a panic renders the value and stack directly -
// intentional reduced hardening for local iteration.
// Everywhere else, the panic ships to Sentry and the client is redirected
// to errURL with nothing of the failure surfaced.
func CatchPanic(env basecamp.Environment, l logger.Logger, errURL string) Adapter {
	return func(h http.Handler) http.Handler {
		if env.IsDevelopment() {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if p := recover(); p != nil {
						w.Header().Set("Content-Type", "text/plain; charset=utf-8")
						w.WriteHeader(http.StatusInternalServerError)
						fmt.Fprintf(w, "panic: %v\n\n%s", p, debug.Stack())
					}
				}()

				h.ServeHTTP(w, r)
			})
		}

		// Repanic so the recovery below still redirects after Sentry reports.
		sh := sentryhttp.New(sentryhttp.Options{
			Repanic:         true,
			WaitForDelivery: true,
		})
		inner := sh.Handle(h)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if l != nil {
						l.Error(fmt.Sprint("recovered panic: ", p), &logger.LogContext{Request: r})
					}

					http.Redirect(w, r, errURL, http.StatusSeeOther)
				}
			}()

			inner.ServeHTTP(w, r)
		})
	}
}
