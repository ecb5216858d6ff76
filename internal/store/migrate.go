// internal/store/migrate.go
//
// Embedded schema migrations for the SQL backends.
// Responsibilities:
//   - Ship migrations/<dialect>/*.sql inside the binary (golang-migrate iofs source).
//   - Apply, roll back and report the schema version for sqlite and postgres.
//
// Notes:
//   - Migrations run on their own *sql.DB because closing a migrate instance
//     closes the database handle it was given.

package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// MigrateUp applies every pending migration for the backend named by dsn.
// The memory backend has no schema and is a no-op.
func MigrateUp(dsn string) error {
	return withMigrate(dsn, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no new migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		version, _, _ := m.Version()
		log.Info().Uint("version", version).Msg("migrated")
		return nil
	})
}

// MigrateDown rolls back steps migrations.
func MigrateDown(dsn string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return withMigrate(dsn, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		log.Info().Int("steps", steps).Msg("rolled back")
		return nil
	})
}

// MigrationVersion reports the applied schema version; ok is false when
// nothing has been applied yet.
func MigrationVersion(dsn string) (version uint, dirty bool, ok bool, err error) {
	err = withMigrate(dsn, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read migration version: %w", verr)
		}
		version, dirty, ok = v, d, true
		return nil
	})
	return version, dirty, ok, err
}

// withMigrate opens a migrate instance for dsn, runs fn and closes it.
func withMigrate(dsn string, fn func(*migrate.Migrate) error) error {
	backend, target, err := ParseDSN(dsn)
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	switch backend {
	case BackendMemory:
		return nil
	case BackendSQLite:
		m, err = sqliteMigrate(target)
	case BackendPostgres:
		m, err = postgresMigrate(target)
	}
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func sqliteMigrate(path string) (*migrate.Migrate, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite for migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite migration driver: %w", err)
	}
	return newMigrate("sqlite3", "migrations/sqlite", driver)
}

func postgresMigrate(url string) (*migrate.Migrate, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	db := stdlib.OpenDB(*config.ConnConfig)
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres migration driver: %w", err)
	}
	return newMigrate("postgres", "migrations/postgres", driver)
}

func newMigrate(name, dir string, driver database.Driver) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
