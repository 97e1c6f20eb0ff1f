package identity

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/outpost-labs/basecamp/postgres"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore implements UserStore in memory for tests.
type memStore struct {
	mu    sync.Mutex
	seq   uint
	users map[uint]*basecamp.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uint]*basecamp.User)}
}

func (s *memStore) ByID(id uint) (*basecamp.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, basecamp.ErrNotExist
	}

	cp := *u
	return &cp, nil
}

func (s *memStore) ByNormalizedEmail(normalized string) (*basecamp.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.NormalizedEmail == normalized {
			cp := *u
			return &cp, nil
		}
	}

	return nil, basecamp.ErrNotExist
}

func (s *memStore) ByExternalID(provider, externalID string) (*basecamp.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ExternalProvider == provider && u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}

	return nil, basecamp.ErrNotExist
}

func (s *memStore) Create(u *basecamp.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.NormalizedEmail == u.NormalizedEmail {
			return postgres.ErrUniqueViolation
		}
	}

	s.seq++
	u.ID = s.seq
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) Update(u *basecamp.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return basecamp.ErrNotExist
	}

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// captureSender records every Email instead of delivering it.
type captureSender struct {
	mu     sync.Mutex
	emails []Email
}

func (s *captureSender) Send(_ context.Context, email Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, email)
	return nil
}

func (s *captureSender) last(t *testing.T) Email {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.emails)
	return s.emails[len(s.emails)-1]
}

func newTestManager(t *testing.T) (*UserManager, *memStore, *captureSender) {
	t.Helper()

	store := newMemStore()
	sender := new(captureSender)
	tokens, err := NewTokenIssuer([]byte("test-signing-key"))
	require.NoError(t, err)

	base, err := url.ParseRequestURI("https://app.test")
	require.NoError(t, err)

	m, err := NewUserManager(store, tokens, sender, logger.New(), base)
	require.NoError(t, err)

	return m, store, sender
}

func TestNewUserManager(t *testing.T) {
	// Arrange & Act
	m, err := NewUserManager(nil, nil, nil, nil, nil)

	// Assert
	require.ErrorIs(t, err, basecamp.ErrBadConfig)
	require.Nil(t, m)
}

func TestUserManagerRegister(t *testing.T) {
	t.Run("Successful", func(t *testing.T) {
		// Arrange
		m, _, sender := newTestManager(t)

		// Act
		u, err := m.Register(context.Background(), " Me@Example.com ", "hunter2hunter2")

		// Assert
		require.NoError(t, err)
		require.Equal(t, "Me@Example.com", u.Email)
		require.Equal(t, "me@example.com", u.NormalizedEmail)
		require.False(t, u.EmailConfirmed)
		require.NotEmpty(t, u.SecurityStamp)
		require.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("hunter2hunter2")))

		email := sender.last(t)
		require.Equal(t, u.Email, email.To)
		require.Contains(t, email.Body, "https://app.test/account/confirm?token=")
	})

	t.Run("EmailTaken", func(t *testing.T) {
		// Arrange
		m, _, _ := newTestManager(t)
		_, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)

		// Act
		_, err = m.Register(context.Background(), "ME@example.com", "another-password")

		// Assert
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		// Arrange
		m, _, _ := newTestManager(t)

		// Act
		_, err := m.Register(context.Background(), "me@example.com", "short")

		// Assert
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("BadEmail", func(t *testing.T) {
		// Arrange
		m, _, _ := newTestManager(t)

		// Act
		_, err := m.Register(context.Background(), "not-an-email", "hunter2hunter2")

		// Assert
		require.ErrorIs(t, err, basecamp.ErrNotValid)
	})
}

func TestUserManagerConfirmEmail(t *testing.T) {
	t.Run("Successful", func(t *testing.T) {
		// Arrange
		m, _, sender := newTestManager(t)
		_, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)
		token := tokenFromEmail(t, sender.last(t))

		// Act
		u, err := m.ConfirmEmail(token)

		// Assert
		require.NoError(t, err)
		require.True(t, u.EmailConfirmed)
	})

	t.Run("StaleStamp", func(t *testing.T) {
		// Arrange
		m, _, sender := newTestManager(t)
		u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)
		token := tokenFromEmail(t, sender.last(t))

		// Rotating the password rotates the stamp, voiding the old link.
		require.NoError(t, m.ChangePassword(u, "hunter2hunter2", "a-new-password"))

		// Act
		_, err = m.ConfirmEmail(token)

		// Assert
		require.ErrorIs(t, err, ErrBadToken)
	})
}

func TestUserManagerAccessFailed(t *testing.T) {
	// Arrange
	m, store, _ := newTestManager(t)
	u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// Act: spend the whole attempt budget.
	for i := 0; i < maxFailedLogins; i++ {
		fresh, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.NoError(t, m.AccessFailed(fresh))
	}

	// Assert
	locked, err := store.ByID(u.ID)
	require.NoError(t, err)
	require.NotNil(t, locked.LockoutUntil)
	require.True(t, locked.Locked(time.Now()))
	require.Zero(t, locked.FailedLogins)

	// Act
	require.NoError(t, m.ResetAccess(locked))

	// Assert
	reset, err := store.ByID(u.ID)
	require.NoError(t, err)
	require.Nil(t, reset.LockoutUntil)
	require.False(t, reset.Locked(time.Now()))
}

func TestUserManagerPasswordReset(t *testing.T) {
	t.Run("UnknownEmailStaysSilent", func(t *testing.T) {
		// Arrange
		m, _, sender := newTestManager(t)

		// Act
		err := m.SendPasswordReset(context.Background(), "nobody@example.com")

		// Assert
		require.NoError(t, err)
		require.Empty(t, sender.emails)
	})

	t.Run("Successful", func(t *testing.T) {
		// Arrange
		m, store, sender := newTestManager(t)
		u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)
		before := u.SecurityStamp

		require.NoError(t, m.SendPasswordReset(context.Background(), "me@example.com"))
		email := sender.last(t)
		require.Contains(t, email.Body, "https://app.test/account/reset?token=")

		// Act
		reset, err := m.ResetPassword(tokenFromEmail(t, email), "a-new-password")

		// Assert
		require.NoError(t, err)
		require.NoError(t, bcrypt.CompareHashAndPassword(reset.PasswordHash, []byte("a-new-password")))
		require.NotEqual(t, before, reset.SecurityStamp)

		stored, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.Zero(t, stored.FailedLogins)
		require.Nil(t, stored.LockoutUntil)
	})

	t.Run("TokenSingleUse", func(t *testing.T) {
		// Arrange
		m, _, sender := newTestManager(t)
		_, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)

		require.NoError(t, m.SendPasswordReset(context.Background(), "me@example.com"))
		token := tokenFromEmail(t, sender.last(t))

		_, err = m.ResetPassword(token, "a-new-password")
		require.NoError(t, err)

		// Act: the stamp rotated with the first redemption.
		_, err = m.ResetPassword(token, "yet-another-password")

		// Assert
		require.ErrorIs(t, err, ErrBadToken)
	})
}

func TestUserManagerChangeEmail(t *testing.T) {
	t.Run("Successful", func(t *testing.T) {
		// Arrange
		m, store, sender := newTestManager(t)
		u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)
		_, err = m.ConfirmEmail(tokenFromEmail(t, sender.last(t)))
		require.NoError(t, err)

		fresh, err := store.ByID(u.ID)
		require.NoError(t, err)

		// Act
		err = m.ChangeEmail(context.Background(), fresh, "new@example.com", "hunter2hunter2")

		// Assert
		require.NoError(t, err)
		stored, err := store.ByID(u.ID)
		require.NoError(t, err)
		require.Equal(t, "new@example.com", stored.NormalizedEmail)
		require.False(t, stored.EmailConfirmed)
		require.Contains(t, sender.last(t).Body, "/account/confirm?token=")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		// Arrange
		m, _, _ := newTestManager(t)
		u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
		require.NoError(t, err)

		// Act
		err = m.ChangeEmail(context.Background(), u, "new@example.com", "wrong")

		// Assert
		require.ErrorIs(t, err, ErrBadCredentials)
	})
}

func TestUserManagerChangePassword(t *testing.T) {
	// Arrange
	m, _, _ := newTestManager(t)
	u, err := m.Register(context.Background(), "me@example.com", "hunter2hunter2")
	require.NoError(t, err)
	before := u.SecurityStamp

	// Act & Assert
	require.ErrorIs(t, m.ChangePassword(u, "wrong", "a-new-password"), ErrBadCredentials)
	require.ErrorIs(t, m.ChangePassword(u, "hunter2hunter2", "short"), ErrWeakPassword)

	require.NoError(t, m.ChangePassword(u, "hunter2hunter2", "a-new-password"))
	require.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("a-new-password")))
	require.NotEqual(t, before, u.SecurityStamp)
}

func TestUserManagerCheckPasswordExternalOnly(t *testing.T) {
	// Arrange: an externally created account has no password hash.
	m, _, _ := newTestManager(t)
	u := &basecamp.User{}

	// Act & Assert
	require.ErrorIs(t, m.CheckPassword(u, "anything"), ErrBadCredentials)
}

// tokenFromEmail extracts the token query param from the link in an Email body.
func tokenFromEmail(t *testing.T, email Email) string {
	t.Helper()

	const marker = "?token="
	pos := strings.Index(email.Body, marker)
	require.GreaterOrEqual(t, pos, 0)

	return email.Body[pos+len(marker):]
}
