package basecamp

import (
	"database/sql"
	"time"
)

// A Model is the essential data points for primary ID-based records in a basecamp application,
// indicating when a record was created, last updated and soft deleted.
type Model struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt DeletedTime
}

// DeletedTime is a nullable timestamp marking a record as soft deleted.
type DeletedTime struct {
	sql.NullTime
}

// IsDeleted asserts whether the record is soft deleted.
func (dt DeletedTime) IsDeleted() bool { return dt.Valid }
