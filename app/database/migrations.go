package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SchemaStatus is the sheet schema version before and after a migration run.
type SchemaStatus struct {
	From uint
	To   uint
}

func (s SchemaStatus) Changed() bool {
	return s.From != s.To
}

// RunMigrations brings the sheet schema up to date. A schema left dirty by
// an interrupted run is reported instead of migrated further.
func RunMigrations(db *DB) (SchemaStatus, error) {
	m, err := newMigrator(db)
	if err != nil {
		return SchemaStatus{}, err
	}
	// m.Close is not called: it would close the shared *sql.DB.

	from, err := schemaVersion(m)
	if err != nil {
		return SchemaStatus{}, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaStatus{From: from}, fmt.Errorf("failed to migrate sheet schema from version %d: %w", from, err)
	}

	to, err := schemaVersion(m)
	if err != nil {
		return SchemaStatus{From: from}, err
	}

	status := SchemaStatus{From: from, To: to}
	if status.Changed() {
		slog.Info("Sheet schema migrated", "from", from, "to", to)
	} else {
		slog.Debug("Sheet schema up to date", "version", to)
	}

	return status, nil
}

func newMigrator(db *DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// schemaVersion returns 0 for a database that has never been migrated.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("sheet schema is dirty at version %d, repair it before restarting", version)
	}
	return version, nil
}
