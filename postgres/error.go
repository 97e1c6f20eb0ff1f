package postgres

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/outpost-labs/basecamp"
	"gorm.io/gorm"
)

// ErrUniqueViolation surfaces a PostgreSQL unique-constraint failure
// without callers needing to inspect SQLSTATEs.
var ErrUniqueViolation = errors.New("unique violation")

// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
var errUniqViolation = regexp.MustCompile(`SQLSTATE (23505)`)

// translateError converts driver and GORM errors into the module's sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", basecamp.ErrNotExist, err)
	}

	if errUniqViolation.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, err)
	}

	return err
}
