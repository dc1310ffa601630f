// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrDirty means a migration failed halfway and the schema needs manual repair.
var ErrDirty = errors.New("database schema is dirty")

// Migrate applies every pending migration. Safe to call multiple times.
func Migrate(conn *sqlx.DB, dialect string) error {
	m, err := newMigrator(conn, dialect)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Version reports the current schema version and whether the last
// migration left the schema dirty.
func Version(conn *sqlx.DB, dialect string) (uint, bool, error) {
	m, err := newMigrator(conn, dialect)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// Ready returns the schema version and refuses a dirty schema.
func Ready(conn *sqlx.DB, dialect string) (uint, error) {
	version, dirty, err := Version(conn, dialect)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirty, version)
	}
	return version, nil
}

// newMigrator binds the embedded migrations to conn. The returned migrator
// must not be closed: its driver would close conn with it.
func newMigrator(conn *sqlx.DB, dialect string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case Postgres:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database type %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
