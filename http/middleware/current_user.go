package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
)

// The User defines attributes about a user in the context of middleware.
type User interface {
	HasAccess() bool
	HomePath() string
}

// UserStorer defines how to retrieve a User by an ID in the context of middleware.
type UserStorer func(id uint) (User, error)

// CurrentUser pulls the user ID out of the session stored in the
// *http.Request.Context and revalidates it against the store on every request.
//
// A session naming a user the store no longer vouches for is deleted.
// A store failure fails the request but keeps the session intact.
// A valid user has its session expiry reset and is stashed under userKey
// for later stages.
func CurrentUser(storer UserStorer, sessionKey, userKey basecamp.Key, loginURL string) Adapter {
	if storer == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := r.Context().Value(sessionKey).(session.Session)
			if !ok {
				handler.ServeHTTP(w, r)
				return
			}

			uid, err := s.UserID()
			if err != nil {
				// no user in the session; the request may be for an
				// unauthenticated endpoint, something for the route
				// guards to determine
				handler.ServeHTTP(w, r)
				return
			}

			user, err := storer(uid)
			if errors.Is(err, basecamp.ErrNotExist) {
				_ = s.Delete(w, r)
				handleUnauthed(w, r, loginURL)
				return
			}

			if err != nil {
				// a store failure says nothing about the session;
				// keep it and fail the request instead
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			if !user.HasAccess() {
				s.ClearFlashes(w, r)
				_ = s.DeregisterUser(w, r)
				handleUnauthed(w, r, loginURL)
				return
			}

			if err := s.ResetExpiry(w, r); err != nil {
				_ = s.Delete(w, r)
				handleUnauthed(w, r, loginURL)
				return
			}

			w.Header().Add("Cache-control", "no-store")
			w.Header().Add("Pragma", "no-cache")

			ctx := context.WithValue(r.Context(), userKey, user)
			handler.ServeHTTP(w, r.Clone(ctx))
		})
	}
}

// RequireUnauthed guards routes only unauthenticated users may reach.
//
// An authenticated user is redirected to their home path,
// or receives 400 when the request accepts JSON.
func RequireUnauthed(userKey basecamp.Key) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cu, ok := r.Context().Value(userKey).(User); ok {
				if acceptsJSON(r.Header) {
					w.WriteHeader(http.StatusBadRequest)
					return
				}

				http.Redirect(w, r, cu.HomePath(), http.StatusTemporaryRedirect)
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

// RequireAuthed guards routes requiring an authenticated user.
//
// An unauthenticated request is redirected to the login URL,
// or receives 401 when it accepts JSON.
// The URL originally requested is appended as a "next" query param
// when the request method is GET and the endpoint is not the logoff URL.
func RequireAuthed(userKey basecamp.Key, loginURL, logoffURL string) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Value(userKey).(User); !ok {
				if acceptsJSON(r.Header) {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}

				u := loginURL
				if r.Method == http.MethodGet && r.URL.Path != logoffURL {
					u += "?next=" + url.QueryEscape(r.URL.String())
				}

				http.Redirect(w, r, u, http.StatusTemporaryRedirect)
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

func handleUnauthed(w http.ResponseWriter, r *http.Request, loginURL string) {
	if acceptsJSON(r.Header) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusTemporaryRedirect)
}

func acceptsJSON(header http.Header) bool {
	for _, v := range header.Values("Accept") {
		if strings.Contains(v, "application/json") {
			return true
		}
	}

	return false
}
