package postgres

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// migrationLockID is the app-wide advisory lock serializing concurrent
// instances racing to migrate on deploy.
const migrationLockID = 715517

// Migration holds the unique key and function executing one schema change.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

func (m Migration) execute(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := m.Executor(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %q: %w", m.Key, err)
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %q: %w", m.Key, err)
	}

	return nil
}

// MigrateUp applies all pending migrations, in order, one transaction each.
//
// A session-level advisory lock is held for the duration so concurrent
// instances booting against the same database serialize instead of racing.
// The first failure stops the run and returns; already-committed migrations
// stay committed.
func MigrateUp(db *gorm.DB, migrations []Migration) error {
	if err := db.Exec("SELECT pg_advisory_lock(?)", migrationLockID).Error; err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer db.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)

	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	ran, err := ranMigrationKeys(db)
	if err != nil {
		return err
	}

	for _, m := range pendingMigrations(ran, migrations) {
		if err := m.execute(db); err != nil {
			return err
		}

		if err := createMigrationRecord(db, m.Key); err != nil {
			return err
		}
	}

	return nil
}

// HasPending asserts whether any migration in the list has not yet run.
func HasPending(db *gorm.DB, migrations []Migration) (bool, error) {
	if err := ensureMigrationsTable(db); err != nil {
		return false, err
	}

	ran, err := ranMigrationKeys(db)
	if err != nil {
		return false, err
	}

	return len(pendingMigrations(ran, migrations)) > 0, nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	return nil
}

func ranMigrationKeys(db *gorm.DB) ([]string, error) {
	var keys []string
	if err := db.Raw("SELECT key FROM migrations;").Scan(&keys).Error; err != nil {
		return nil, fmt.Errorf("fetching ran migrations: %w", err)
	}

	return keys, nil
}

// pendingMigrations compares ran migration keys to the full list
// to determine which still need to run, preserving list order.
func pendingMigrations(ran []string, all []Migration) []Migration {
	if len(ran) == 0 {
		return all
	}

	ranSet := make(map[string]struct{}, len(ran))
	for _, key := range ran {
		ranSet[key] = struct{}{}
	}

	pending := []Migration{}
	for _, m := range all {
		if _, ok := ranSet[m.Key]; !ok {
			pending = append(pending, m)
		}
	}

	return pending
}

func createMigrationRecord(db *gorm.DB, key string) error {
	err := db.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, key, time.Now().Unix()).Error
	if err != nil {
		return fmt.Errorf("recording migration %q: %w", key, err)
	}

	return nil
}
