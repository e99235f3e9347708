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
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending migrations for driver from the embedded
// migrations directory. The sqlite DSN must point at a file; an in-memory
// database would not outlive the migration connection.
func RunMigrations(driver Driver, dsn string, logger *zap.Logger) error {
	// Open a separate connection for migrations
	conn, err := openDB(driver, dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer conn.Close()

	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var dbDriver database.Driver
	switch driver {
	case Postgres:
		dbDriver, err = postgres.WithInstance(conn, &postgres.Config{})
	case SQLite:
		dbDriver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(driver), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		zap.String("driver", string(driver)),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))

	return nil
}
