package sqlite

import (
	"errors"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/zefruta/storefront/internal/storefront/store/drivers/sqlite/migrations"
)

// ApplyMigrations applies any pending migrations from the embedded SQL files.
func (s *Store) ApplyMigrations() error {
	instance, err := s.migrator()
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// RollbackMigrations reverts up to steps migrations. Reaching version zero
// early is not an error.
func (s *Store) RollbackMigrations(steps int) error {
	instance, err := s.migrator()
	if err != nil {
		return err
	}

	err = instance.Steps(-steps)
	var short migrate.ErrShortLimit
	switch {
	case err == nil, errors.Is(err, migrate.ErrNoChange), errors.As(err, &short):
		return nil
	case errors.Is(err, os.ErrNotExist):
		// golang-migrate reports the lower boundary as a bare ErrNotExist.
		return nil
	default:
		return err
	}
}

// MigrationVersion reports the applied schema version. Version 0 with
// dirty=false means no migration has run yet.
func (s *Store) MigrationVersion() (uint, bool, error) {
	instance, err := s.migrator()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite", driver)
}
