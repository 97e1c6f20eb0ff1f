package postgres

import (
	"gorm.io/gorm"
)

// DatabaseService exposes the most basic database interactions to services and handlers.
// More complex composition happens against the *gorm.DB available through DB.
type DatabaseService interface {
	CreateRecord(model any) error
	FindByID(model any, id any) error
	FindOneWhere(model any, query string, args ...any) error
	UpdateRecord(model any) error

	DB() *gorm.DB
}

// Service implements DatabaseService over a GORM connection.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// DB exposes the backing *gorm.DB for procedural composition.
func (s *Service) DB() *gorm.DB { return s.db }

// CreateRecord receives a database model as a pointer and inserts it.
func (s *Service) CreateRecord(model any) error {
	return translateError(s.db.Create(model).Error)
}

// FindByID receives a database model as a pointer and fetches it by primary ID.
func (s *Service) FindByID(model any, id any) error {
	return translateError(s.db.Where("id = ?", id).First(model).Error)
}

// FindOneWhere receives a database model as a pointer and fetches the first record matching the query.
func (s *Service) FindOneWhere(model any, query string, args ...any) error {
	return translateError(s.db.Where(query, args...).First(model).Error)
}

// UpdateRecord receives a database model as a pointer and saves all its fields.
func (s *Service) UpdateRecord(model any) error {
	return translateError(s.db.Save(model).Error)
}
