package session

import "errors"

var (
	ErrNoUser   = errors.New("no user in session")
	ErrNotValid = errors.New("not valid")
)
