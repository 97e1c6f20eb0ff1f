package identity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/outpost-labs/basecamp"
)

// A TokenPurpose scopes a token to the single workflow that may redeem it.
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm-email"
	PurposeResetPassword TokenPurpose = "reset-password"
	PurposeTwoFactor     TokenPurpose = "two-factor"
)

// tokenClaims carries the user's ID in the subject plus the purpose
// and the security stamp current when the token was issued.
type tokenClaims struct {
	Purpose string `json:"pur"`
	Stamp   string `json:"stp"`
	jwt.RegisteredClaims
}

// A TokenIssuer mints and parses the signed, expiring tokens backing
// email confirmation, password reset and two-factor sign-in.
//
// Tokens embed the user's security stamp; rotating the stamp invalidates
// every outstanding token without server-side token storage.
type TokenIssuer struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenIssuer(key []byte) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: token signing key cannot be empty", basecamp.ErrBadConfig)
	}

	return &TokenIssuer{
		key:    key,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Issue mints a token for the user scoped to the purpose, expiring after ttl.
func (t *TokenIssuer) Issue(purpose TokenPurpose, userID uint, stamp string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Purpose: string(purpose),
		Stamp:   stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse validates the raw token and returns the user ID and security stamp it carries.
// A token minted for a different purpose does not parse.
func (t *TokenIssuer) Parse(purpose TokenPurpose, raw string) (uint, string, error) {
	claims := new(tokenClaims)
	_, err := t.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", ErrBadToken, err)
	}

	if claims.Purpose != string(purpose) {
		return 0, "", fmt.Errorf("%w: token purpose mismatch", ErrBadToken)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad subject: %s", ErrBadToken, err)
	}

	return uint(id), claims.Stamp, nil
}
