package basecamp

import (
	"strings"
	"time"
)

// A User is the core identity record of a basecamp application.
//
// An agent's HTTP requests are authenticated first by a specific request
// with email & password data matching credentials stored on a DB record for a User,
// or by completing an external OAuth handshake.
// Upon a match, a session is created and stored.
// Further requests are authenticated by referencing that session.
//
// All fields other than Email are owned by the identity package;
// handlers ought not mutate them directly.
type User struct {
	Model
	Email            string
	NormalizedEmail  string `gorm:"uniqueIndex"`
	PasswordHash     []byte
	SecurityStamp    string
	EmailConfirmed   bool
	FailedLogins     int
	LockoutUntil     *time.Time
	TwoFactorEnabled bool
	ExternalProvider string
	ExternalID       string
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasAccess asserts whether the User's properties give it general
// access to the basecamp application.
func (u User) HasAccess() bool {
	return u.EmailConfirmed && !u.Locked(time.Now()) && !u.DeletedAt.IsDeleted()
}

// Locked asserts whether the User is locked out of password sign-in
// at the provided moment.
func (u User) Locked(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// HomePath returns the relative URL path designated
// as the default resource in the basecamp application
// the User can access.
func (u User) HomePath() string {
	if !u.HasAccess() {
		return "/account/login"
	}

	return "/"
}
