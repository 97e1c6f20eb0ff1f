package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
)

// A SessionRegistrar records which User owns the session tied to a request.
//
// The session package's Session satisfies it; sign-in flows retrieve the
// request's value stashed under basecamp.SessionKey.
type SessionRegistrar interface {
	RegisterUser(w http.ResponseWriter, r *http.Request, id uint) error
	DeregisterUser(w http.ResponseWriter, r *http.Request) error
	Delete(w http.ResponseWriter, r *http.Request) error
}

// A SignInManager authenticates credentials and manages the resulting sessions.
//
// The confirmed-email policy is on: an unconfirmed account cannot sign in
// with a password.
type SignInManager struct {
	users            *UserManager
	l                logger.Logger
	requireConfirmed bool
	now              func() time.Time
}

func NewSignInManager(users *UserManager, l logger.Logger) (*SignInManager, error) {
	if users == nil || l == nil {
		return nil, fmt.Errorf("%w: SignInManager dependencies cannot be nil", basecamp.ErrBadConfig)
	}

	return &SignInManager{
		users:            users,
		l:                l,
		requireConfirmed: true,
		now:              time.Now,
	}, nil
}

// PasswordSignIn authenticates the email and password pair.
//
// On success the User registers onto the request's session.
// When the User has two-factor enabled, no session registers;
// the code email goes out and ErrTwoFactorRequired returns alongside the User.
func (s *SignInManager) PasswordSignIn(w http.ResponseWriter, r *http.Request, email, password string) (*basecamp.User, error) {
	u, err := s.users.store.ByNormalizedEmail(basecamp.NormalizeEmail(email))
	if errors.Is(err, basecamp.ErrNotExist) {
		return nil, ErrBadCredentials
	}

	if err != nil {
		return nil, err
	}

	if u.Locked(s.now()) {
		return nil, ErrLockedOut
	}

	if err := s.users.CheckPassword(u, password); err != nil {
		if err := s.users.AccessFailed(u); err != nil {
			s.l.Error("recording failed sign-in", &logger.LogContext{Error: err, User: logUser{u}})
		}

		return nil, ErrBadCredentials
	}

	if s.requireConfirmed && !u.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	if err := s.users.ResetAccess(u); err != nil {
		return nil, err
	}

	if u.TwoFactorEnabled {
		if err := s.users.SendTwoFactorCode(r.Context(), u); err != nil {
			return nil, err
		}

		return u, ErrTwoFactorRequired
	}

	return u, s.registerSession(w, r, u)
}

// CompleteTwoFactor redeems an emailed two-factor code,
// registering the User onto the request's session.
func (s *SignInManager) CompleteTwoFactor(w http.ResponseWriter, r *http.Request, code string) (*basecamp.User, error) {
	u, err := s.users.RedeemToken(PurposeTwoFactor, code)
	if err != nil {
		return nil, err
	}

	return u, s.registerSession(w, r, u)
}

// ExternalSignIn signs in a User vouched for by an external provider,
// creating or linking the account on first contact.
// Externally created accounts arrive with their email already verified,
// so they start confirmed.
func (s *SignInManager) ExternalSignIn(w http.ResponseWriter, r *http.Request, provider, externalID, email string) (*basecamp.User, error) {
	u, err := s.users.store.ByExternalID(provider, externalID)
	if err != nil && !errors.Is(err, basecamp.ErrNotExist) {
		return nil, err
	}

	if errors.Is(err, basecamp.ErrNotExist) {
		u, err = s.findOrCreateExternal(provider, externalID, email)
		if err != nil {
			return nil, err
		}
	}

	if u.Locked(s.now()) {
		return nil, ErrLockedOut
	}

	return u, s.registerSession(w, r, u)
}

// SignOut deregisters the User from the request's session and deletes it.
func (s *SignInManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sessionFromCtx(r)
	if err != nil {
		return err
	}

	if err := sess.DeregisterUser(w, r); err != nil {
		return err
	}

	return sess.Delete(w, r)
}

func (s *SignInManager) findOrCreateExternal(provider, externalID, email string) (*basecamp.User, error) {
	u, err := s.users.store.ByNormalizedEmail(basecamp.NormalizeEmail(email))
	if err == nil {
		u.ExternalProvider = provider
		u.ExternalID = externalID
		return u, s.users.store.Update(u)
	}

	if !errors.Is(err, basecamp.ErrNotExist) {
		return nil, err
	}

	u = &basecamp.User{
		Email:            email,
		NormalizedEmail:  basecamp.NormalizeEmail(email),
		SecurityStamp:    uuid.NewString(),
		EmailConfirmed:   true,
		ExternalProvider: provider,
		ExternalID:       externalID,
	}

	return u, s.users.store.Create(u)
}

func (s *SignInManager) registerSession(w http.ResponseWriter, r *http.Request, u *basecamp.User) error {
	sess, err := sessionFromCtx(r)
	if err != nil {
		return err
	}

	return sess.RegisterUser(w, r, u.ID)
}

func sessionFromCtx(r *http.Request) (SessionRegistrar, error) {
	sess, ok := r.Context().Value(basecamp.SessionKey).(SessionRegistrar)
	if !ok {
		return nil, basecamp.ErrNoSession
	}

	return sess, nil
}
