// Package identity provides user account storage, password hashing,
// token issuing and sign-in session management for basecamp applications.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/outpost-labs/basecamp/postgres"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8

	maxFailedLogins = 5
	lockoutWindow   = 15 * time.Minute

	confirmTokenTTL   = 72 * time.Hour
	resetTokenTTL     = time.Hour
	twoFactorTokenTTL = 10 * time.Minute
)

// A UserManager owns the lifecycle of User records:
// registration, email confirmation, password and email changes,
// lockout accounting and the emails those workflows send.
type UserManager struct {
	store   UserStore
	tokens  *TokenIssuer
	sender  EmailSender
	l       logger.Logger
	baseURL *url.URL
	now     func() time.Time
}

func NewUserManager(store UserStore, tokens *TokenIssuer, sender EmailSender, l logger.Logger, baseURL *url.URL) (*UserManager, error) {
	if store == nil || tokens == nil || sender == nil || l == nil || baseURL == nil {
		return nil, fmt.Errorf("%w: UserManager dependencies cannot be nil", basecamp.ErrBadConfig)
	}

	return &UserManager{
		store:   store,
		tokens:  tokens,
		sender:  sender,
		l:       l,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

// Register creates an unconfirmed User with the hashed password
// and sends the confirmation email.
func (m *UserManager) Register(ctx context.Context, email, password string) (*basecamp.User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email address", basecamp.ErrNotValid)
	}

	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: minimum %d characters", ErrWeakPassword, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &basecamp.User{
		Email:           email,
		NormalizedEmail: basecamp.NormalizeEmail(email),
		PasswordHash:    hash,
		SecurityStamp:   uuid.NewString(),
	}

	if err := m.store.Create(u); err != nil {
		if errors.Is(err, postgres.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, u.NormalizedEmail)
		}

		return nil, err
	}

	if err := m.SendConfirmation(ctx, u); err != nil {
		m.l.Error("sending confirmation email", &logger.LogContext{Error: err, User: logUser{u}})
	}

	return u, nil
}

// SendConfirmation emails the User a link confirming their address.
func (m *UserManager) SendConfirmation(ctx context.Context, u *basecamp.User) error {
	token, err := m.tokens.Issue(PurposeConfirmEmail, u.ID, u.SecurityStamp, confirmTokenTTL)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Email{
		To:      u.Email,
		Subject: "Confirm your email",
		Body:    fmt.Sprintf("Confirm your account by opening %s", m.link("/account/confirm", token)),
	})
}

// ConfirmEmail redeems a confirmation token, marking the User's email confirmed.
func (m *UserManager) ConfirmEmail(raw string) (*basecamp.User, error) {
	u, err := m.RedeemToken(PurposeConfirmEmail, raw)
	if err != nil {
		return nil, err
	}

	u.EmailConfirmed = true
	if err := m.store.Update(u); err != nil {
		return nil, err
	}

	return u, nil
}

// CheckPassword compares the candidate password against the User's hash.
func (m *UserManager) CheckPassword(u *basecamp.User, password string) error {
	if len(u.PasswordHash) == 0 {
		// external-only account
		return ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return ErrBadCredentials
	}

	return nil
}

// AccessFailed records a failed sign-in attempt,
// locking the User out once the attempt budget is spent.
func (m *UserManager) AccessFailed(u *basecamp.User) error {
	u.FailedLogins++
	if u.FailedLogins >= maxFailedLogins {
		until := m.now().Add(lockoutWindow)
		u.LockoutUntil = &until
		u.FailedLogins = 0
	}

	return m.store.Update(u)
}

// ResetAccess clears failed-attempt accounting after a successful sign-in.
func (m *UserManager) ResetAccess(u *basecamp.User) error {
	if u.FailedLogins == 0 && u.LockoutUntil == nil {
		return nil
	}

	u.FailedLogins = 0
	u.LockoutUntil = nil
	return m.store.Update(u)
}

// ChangePassword replaces the User's password after verifying the current one.
// The security stamp rotates, invalidating outstanding tokens.
func (m *UserManager) ChangePassword(u *basecamp.User, current, updated string) error {
	if err := m.CheckPassword(u, current); err != nil {
		return err
	}

	return m.setPassword(u, updated)
}

// SendPasswordReset emails a reset link to the address, if an account exists for it.
// No error surfaces for unknown addresses so the endpoint cannot be used
// to probe which emails are registered.
func (m *UserManager) SendPasswordReset(ctx context.Context, email string) error {
	u, err := m.store.ByNormalizedEmail(basecamp.NormalizeEmail(email))
	if errors.Is(err, basecamp.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	token, err := m.tokens.Issue(PurposeResetPassword, u.ID, u.SecurityStamp, resetTokenTTL)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Email{
		To:      u.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Reset your password by opening %s", m.link("/account/reset", token)),
	})
}

// ResetPassword redeems a reset token and replaces the User's password.
// Lockout state clears; the security stamp rotates.
func (m *UserManager) ResetPassword(raw, password string) (*basecamp.User, error) {
	u, err := m.RedeemToken(PurposeResetPassword, raw)
	if err != nil {
		return nil, err
	}

	u.FailedLogins = 0
	u.LockoutUntil = nil
	if err := m.setPassword(u, password); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangeEmail replaces the User's email after verifying their password.
// The new address starts unconfirmed and a fresh confirmation email goes out.
func (m *UserManager) ChangeEmail(ctx context.Context, u *basecamp.User, email, password string) error {
	if err := m.CheckPassword(u, password); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address", basecamp.ErrNotValid)
	}

	u.Email = email
	u.NormalizedEmail = basecamp.NormalizeEmail(email)
	u.EmailConfirmed = false
	u.SecurityStamp = uuid.NewString()
	if err := m.store.Update(u); err != nil {
		if errors.Is(err, postgres.ErrUniqueViolation) {
			return fmt.Errorf("%w: %s", ErrEmailTaken, u.NormalizedEmail)
		}

		return err
	}

	if err := m.SendConfirmation(ctx, u); err != nil {
		m.l.Error("sending confirmation email", &logger.LogContext{Error: err, User: logUser{u}})
	}

	return nil
}

// SetTwoFactor toggles the emailed second sign-in step for the User.
func (m *UserManager) SetTwoFactor(u *basecamp.User, enabled bool) error {
	if u.TwoFactorEnabled == enabled {
		return nil
	}

	u.TwoFactorEnabled = enabled
	return m.store.Update(u)
}

// SendTwoFactorCode emails the short-lived code completing a two-factor sign-in.
func (m *UserManager) SendTwoFactorCode(ctx context.Context, u *basecamp.User) error {
	token, err := m.tokens.Issue(PurposeTwoFactor, u.ID, u.SecurityStamp, twoFactorTokenTTL)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Email{
		To:      u.Email,
		Subject: "Your sign-in code",
		Body:    fmt.Sprintf("Finish signing in by opening %s", m.link("/account/twofactor", token)),
	})
}

// RedeemToken parses the raw token for the purpose and loads its User.
// A token whose security stamp no longer matches the record is rejected;
// rotating the stamp is how password and email changes void old links.
func (m *UserManager) RedeemToken(purpose TokenPurpose, raw string) (*basecamp.User, error) {
	id, stamp, err := m.tokens.Parse(purpose, raw)
	if err != nil {
		return nil, err
	}

	u, err := m.store.ByID(id)
	if errors.Is(err, basecamp.ErrNotExist) {
		return nil, fmt.Errorf("%w: no user for token", ErrBadToken)
	}

	if err != nil {
		return nil, err
	}

	if u.SecurityStamp != stamp {
		return nil, fmt.Errorf("%w: stale security stamp", ErrBadToken)
	}

	return u, nil
}

// ByID retrieves a User by primary ID.
func (m *UserManager) ByID(id uint) (*basecamp.User, error) { return m.store.ByID(id) }

func (m *UserManager) setPassword(u *basecamp.User, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: minimum %d characters", ErrWeakPassword, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.SecurityStamp = uuid.NewString()
	return m.store.Update(u)
}

func (m *UserManager) link(path, token string) string {
	u := *m.baseURL
	u.Path = path
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	return u.String()
}

// logUser adapts a *basecamp.User to the logger.LogUser interface.
type logUser struct{ u *basecamp.User }

func (lu logUser) GetID() uint      { return lu.u.ID }
func (lu logUser) GetEmail() string { return lu.u.Email }
