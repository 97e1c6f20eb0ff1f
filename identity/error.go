package identity

import "errors"

var (
	ErrBadCredentials    = errors.New("bad credentials")
	ErrBadToken          = errors.New("bad token")
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrEmailTaken        = errors.New("email taken")
	ErrLockedOut         = errors.New("locked out")
	ErrTwoFactorRequired = errors.New("two-factor required")
	ErrWeakPassword      = errors.New("weak password")
)
