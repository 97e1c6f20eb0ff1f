// Package session wraps gorilla/sessions with the small surface a basecamp
// application needs: registering the signed-in user, flash messages and
// expiry management.
package session

import (
	"net/http"

	gorilla "github.com/gorilla/sessions"
)

// keys used internal to the gorilla-backed implementation.
const (
	sessionKey     = "basecamp-session-gorilla"
	userSessionKey = sessionKey + "-user"
)

// A Session provides all functionality for managing a fully featured session,
// implemented by lightly wrapping a gorilla session.
type Session struct {
	s *gorilla.Session
}

// NewSession wraps the provided gorilla session.
func NewSession(g *gorilla.Session) Session { return Session{s: g} }

// ClearFlashes drops any accrued flashes without surfacing them.
func (s Session) ClearFlashes(w http.ResponseWriter, r *http.Request) {
	_ = s.Flashes(w, r)
}

// Delete removes a session by making the MaxAge negative.
func (s Session) Delete(w http.ResponseWriter, r *http.Request) error {
	s.s.Options.MaxAge = -1
	return s.Save(w, r)
}

// DeregisterUser removes the user from the session.
func (s Session) DeregisterUser(w http.ResponseWriter, r *http.Request) error {
	delete(s.s.Values, userSessionKey)
	return s.Save(w, r)
}

// Flashes retrieves the []Flash stored in the session.
func (s Session) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	raw := s.s.Flashes()
	fs := make([]Flash, 0, len(raw))
	for _, r := range raw {
		if f, ok := r.(Flash); ok {
			fs = append(fs, f)
		}
	}

	if len(fs) > 0 {
		// Flashes are removed when accessed, but the session must be saved
		// for the removal to stick.
		if err := s.Save(w, r); err != nil {
			return nil
		}
	}

	return fs
}

// Get retrieves a value from the session according to the key passed in.
func (s Session) Get(key string) any { return s.s.Values[key] }

// RegisterUser stores the user's ID in the session.
func (s Session) RegisterUser(w http.ResponseWriter, r *http.Request, id uint) error {
	s.s.Values[userSessionKey] = id
	return s.Save(w, r)
}

// ResetExpiry resets the expiration of the session by saving it.
func (s Session) ResetExpiry(w http.ResponseWriter, r *http.Request) error {
	return s.Save(w, r)
}

// Save persists the session onto the response.
func (s Session) Save(w http.ResponseWriter, r *http.Request) error { return s.s.Save(r, w) }

// Set stores a value according to the key passed in on the session.
func (s Session) Set(w http.ResponseWriter, r *http.Request, key string, val any) error {
	s.s.Values[key] = val
	return s.Save(w, r)
}

// SetFlash stores the passed in Flash in the session.
func (s Session) SetFlash(w http.ResponseWriter, r *http.Request, flash Flash) error {
	s.s.AddFlash(flash)
	return s.Save(w, r)
}

// UserID gets the user ID out of the session.
//
// If no user ID is present - the request is unauthenticated or mid-handshake -
// ErrNoUser returns.
// A value of the wrong type returns ErrNotValid and represents a programming error.
func (s Session) UserID() (uint, error) {
	val, ok := s.s.Values[userSessionKey]
	if !ok {
		return 0, ErrNoUser
	}

	id, ok := val.(uint)
	if !ok {
		return 0, ErrNotValid
	}

	return id, nil
}
