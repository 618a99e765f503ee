// Package db provides database functionality for inetd-gen.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ixops/inetd-gen/internal/config"
	"github.com/ixops/inetd-gen/internal/log"

	// Register migrate's sqlite3 driver.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"

	// Register sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// GetConnectionString returns the database connection string.
func GetConnectionString(cfg config.Settings) string {
	return "sqlite3://" + cfg.DBPath
}

// Connect establishes a read connection to the settings database.
func Connect() (*sql.DB, error) {
	// Remove sqlite3:// prefix if present for direct SQL connection
	dbPath := strings.TrimPrefix(config.GetConfig().DBPath, "sqlite3://")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.GetLogger().Debug("Connected to settings database", "path", dbPath)

	return db, nil
}

// Up runs database migrations to latest version.
func Up(cfg config.Settings) error {
	m, err := getMigrationInstance(cfg)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.GetLogger().Debug("No new database migrations to apply")
			return nil
		}
		return err
	}

	log.GetLogger().Info("Database migrations applied successfully")

	return nil
}

// Down rolls back all database migrations.
func Down(cfg config.Settings) error {
	m, err := getMigrationInstance(cfg)
	if err != nil {
		return err
	}

	if err := m.Down(); err != nil {
		if err == migrate.ErrNoChange {
			log.GetLogger().Debug("No database migrations to roll back")
			return nil
		}
		return err
	}

	log.GetLogger().Info("Database migrations rolled back successfully")

	return nil
}

func getMigrationInstance(cfg config.Settings) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, GetConnectionString(cfg))
	if err != nil {
		return nil, err
	}

	m.Log = &migrationLogger{}

	return m, nil
}

type migrationLogger struct{}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	log.GetLogger().Debug("Migration: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrationLogger) Verbose() bool {
	return false
}
