package identity

import (
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/postgres"
)

// A UserStore persists and retrieves User records for the identity workflows.
type UserStore interface {
	ByID(id uint) (*basecamp.User, error)
	ByNormalizedEmail(normalized string) (*basecamp.User, error)
	ByExternalID(provider, externalID string) (*basecamp.User, error)
	Create(u *basecamp.User) error
	Update(u *basecamp.User) error
}

// PostgresStore implements UserStore over the module's database service.
type PostgresStore struct {
	db postgres.DatabaseService
}

func NewPostgresStore(db postgres.DatabaseService) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ByID(id uint) (*basecamp.User, error) {
	u := new(basecamp.User)
	if err := s.db.FindByID(u, id); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *PostgresStore) ByNormalizedEmail(normalized string) (*basecamp.User, error) {
	u := new(basecamp.User)
	if err := s.db.FindOneWhere(u, "normalized_email = ?", normalized); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *PostgresStore) ByExternalID(provider, externalID string) (*basecamp.User, error) {
	u := new(basecamp.User)
	err := s.db.FindOneWhere(u, "external_provider = ? AND external_id = ?", provider, externalID)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (s *PostgresStore) Create(u *basecamp.User) error { return s.db.CreateRecord(u) }

func (s *PostgresStore) Update(u *basecamp.User) error { return s.db.UpdateRecord(u) }
