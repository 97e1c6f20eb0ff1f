package basecamp

import "errors"

var (
	ErrBadConfig   = errors.New("bad config")
	ErrMissingData = errors.New("missing data")
	ErrNoSession   = errors.New("no session")
	ErrNotExist    = errors.New("not exist")
	ErrNotValid    = errors.New("invalid")
	ErrUnexpected  = errors.New("unexpected")
)
