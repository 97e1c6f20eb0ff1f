package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/stretchr/testify/require"
)

func newTestSignIn(t *testing.T) (*SignInManager, *UserManager, *memStore, *captureSender) {
	t.Helper()

	users, store, sender := newTestManager(t)
	s, err := NewSignInManager(users, logger.New())
	require.NoError(t, err)

	return s, users, store, sender
}

// sessionRequest builds a request carrying a stubbed session in its context.
func sessionRequest(t *testing.T, method, target string) (*http.Request, session.Session) {
	t.Helper()

	r := httptest.NewRequest(method, target, nil)
	sess, err := session.NewStub(0).GetSession(r)
	require.NoError(t, err)

	ctx := context.WithValue(r.Context(), basecamp.SessionKey, sess)
	return r.WithContext(ctx), sess
}

// registerConfirmed registers a user and confirms their email.
func registerConfirmed(t *testing.T, users *UserManager, sender *captureSender, email, password string) *basecamp.User {
	t.Helper()

	_, err := users.Register(context.Background(), email, password)
	require.NoError(t, err)

	u, err := users.ConfirmEmail(tokenFromEmail(t, sender.last(t)))
	require.NoError(t, err)

	return u
}

func TestSignInManagerPasswordSignIn(t *testing.T) {
	t.Run("Successful", func(t *testing.T) {
		// Arrange
		s, users, _, sender := newTestSignIn(t)
		u := registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
		r, sess := sessionRequest(t, http.MethodPost, "/account/login")
		w := httptest.NewRecorder()

		// Act
		signedIn, err := s.PasswordSignIn(w, r, "ME@example.com", "hunter2hunter2")

		// Assert
		require.NoError(t, err)
		require.Equal(t, u.ID, signedIn.ID)

		uid, err := sess.UserID()
		require.NoError(t, err)
		require.Equal(t, u.ID, uid)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		// Arrange
		s, _, _, _ := newTestSignIn(t)
		r, _ := sessionRequest(t, http.MethodPost, "/account/login")

		// Act
		_, err := s.PasswordSignIn(httptest.NewRecorder(), r, "nobody@example.com", "whatever")

		// Assert
		require.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		// Arrange
		s, users, store, sender := newTestSignIn(t)
		u := registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
		r, sess := sessionRequest(t, http.MethodPost, "/account/login")

		// Act
		_, err := s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "wrong")

		// Assert
		require.ErrorIs(t, err, ErrBadCredentials)

		stored, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.Equal(t, 1, stored.FailedLogins)

		_, err = sess.UserID()
		require.ErrorIs(t, err, session.ErrNoUser)
	})

	t.Run("LockedOut", func(t *testing.T) {
		// Arrange
		s, users, _, sender := newTestSignIn(t)
		registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
		r, _ := sessionRequest(t, http.MethodPost, "/account/login")

		for i := 0; i < maxFailedLogins; i++ {
			_, err := s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "wrong")
			require.ErrorIs(t, err, ErrBadCredentials)
		}

		// Act: even the right password bounces while locked out.
		_, err := s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "hunter2hunter2")

		// Assert
		require.ErrorIs(t, err, ErrLockedOut)
	})

	t.Run("EmailNotConfirmed", func(t *testing.T) {
		// Arrange
		s, users, _, _ := newTestSignIn(t)
		_, err := users.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)
		r, sess := sessionRequest(t, http.MethodPost, "/account/login")

		// Act
		_, err = s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "hunter2hunter2")

		// Assert
		require.ErrorIs(t, err, ErrEmailNotConfirmed)

		_, err = sess.UserID()
		require.ErrorIs(t, err, session.ErrNoUser)
	})

	t.Run("TwoFactorRequired", func(t *testing.T) {
		// Arrange
		s, users, store, sender := newTestSignIn(t)
		u := registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")

		fresh, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.NoError(t, users.SetTwoFactor(fresh, true))

		r, sess := sessionRequest(t, http.MethodPost, "/account/login")

		// Act
		pending, err := s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "hunter2hunter2")

		// Assert: no session yet, the emailed code finishes the sign-in.
		require.ErrorIs(t, err, ErrTwoFactorRequired)
		require.Equal(t, u.ID, pending.ID)

		_, err = sess.UserID()
		require.ErrorIs(t, err, session.ErrNoUser)

		require.Contains(t, sender.last(t).Body, "/account/twofactor?token=")

		// Act
		code := tokenFromEmail(t, sender.last(t))
		r2, sess2 := sessionRequest(t, http.MethodPost, "/account/twofactor")
		done, err := s.CompleteTwoFactor(httptest.NewRecorder(), r2, code)

		// Assert
		require.NoError(t, err)
		require.Equal(t, u.ID, done.ID)

		uid, err := sess2.UserID()
		require.NoError(t, err)
		require.Equal(t, u.ID, uid)
	})

	t.Run("NoSessionInContext", func(t *testing.T) {
		// Arrange
		s, users, _, sender := newTestSignIn(t)
		registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
		r := httptest.NewRequest(http.MethodPost, "/account/login", nil)

		// Act
		_, err := s.PasswordSignIn(httptest.NewRecorder(), r, "me@example.com", "hunter2hunter2")

		// Assert
		require.ErrorIs(t, err, basecamp.ErrNoSession)
	})
}

func TestSignInManagerExternalSignIn(t *testing.T) {
	t.Run("CreatesConfirmedAccount", func(t *testing.T) {
		// Arrange
		s, _, store, _ := newTestSignIn(t)
		r, sess := sessionRequest(t, http.MethodGet, "/auth/google/callback")

		// Act
		u, err := s.ExternalSignIn(httptest.NewRecorder(), r, GoogleProvider, "ext-123", "me@example.com")

		// Assert
		require.NoError(t, err)
		require.True(t, u.EmailConfirmed)
		require.Equal(t, GoogleProvider, u.ExternalProvider)
		require.Equal(t, "ext-123", u.ExternalID)

		uid, err := sess.UserID()
		require.NoError(t, err)
		require.Equal(t, u.ID, uid)

		stored, err := store.ByExternalID(GoogleProvider, "ext-123")
		require.NoError(t, err)
		require.Equal(t, u.ID, stored.ID)
	})

	t.Run("LinksExistingAccountByEmail", func(t *testing.T) {
		// Arrange
		s, users, store, sender := newTestSignIn(t)
		u := registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
		r, _ := sessionRequest(t, http.MethodGet, "/auth/google/callback")

		// Act
		linked, err := s.ExternalSignIn(httptest.NewRecorder(), r, GoogleProvider, "ext-123", "ME@example.com")

		// Assert
		require.NoError(t, err)
		require.Equal(t, u.ID, linked.ID)

		stored, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.Equal(t, "ext-123", stored.ExternalID)
	})
}

func TestSignInManagerSignOut(t *testing.T) {
	// Arrange
	s, users, _, sender := newTestSignIn(t)
	u := registerConfirmed(t, users, sender, "me@example.com", "hunter2hunter2")
	r, sess := sessionRequest(t, http.MethodPost, "/account/logout")

	require.NoError(t, sess.RegisterUser(httptest.NewRecorder(), r, u.ID))

	// Act
	err := s.SignOut(httptest.NewRecorder(), r)

	// Assert
	require.NoError(t, err)
	_, err = sess.UserID()
	require.ErrorIs(t, err, session.ErrNoUser)
}
