package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// RunMigrations applies the migrations found in fsys to the database at dsn.
// It is safe to call on every startup: an up-to-date schema is not an error.
func RunMigrations(fsys fs.FS, dsn string) error {
	const op = "postgres.RunMigrations"

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("%s: failed to open migrations source: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}
