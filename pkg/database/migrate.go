package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrationsTable records the applied timetable schema version.
const MigrationsTable = "timetable_schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateLogger routes golang-migrate progress lines into zap at debug level.
type migrateLogger struct {
	logger *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}

// RunMigrations brings the timetable schema up to date. The migrator works on a
// single connection taken from the pool and hands it back when done; db itself
// stays open.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) (err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("component", "migrations"), zap.String("table", MigrationsTable))

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("prepare migrations: %w", err)
	}
	m.Log = migrateLogger{logger: log}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	from, _, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations from version %d: %w", from, err)
	}
	to, dirty, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		log.Warn("timetable schema left dirty", zap.Uint("version", to))
		return fmt.Errorf("schema version %d is dirty", to)
	}

	if from == to {
		log.Info("timetable schema up to date", zap.Uint("version", to))
	} else {
		log.Info("timetable schema migrated", zap.Uint("from", from), zap.Uint("to", to))
	}
	return nil
}

// schemaVersion reports 0 for a database that has never been migrated.
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
