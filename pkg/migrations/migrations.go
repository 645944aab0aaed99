package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/multierr"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

var ErrUnsupportedDialect = errors.New("migrations: unsupported dialect")

type migrator interface {
	Up() error
	Down() error
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	switch cfg.Dialect {
	case DialectPostgres:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
	case DialectMySQL:
		return mysql.WithInstance(db, &mysql.Config{MigrationsTable: cfg.MigrationsTable})
	case DialectSQLite:
		return sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: cfg.MigrationsTable})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, cfg.Dialect)
	}
}

var migratorFactory = func(sourceURL, dialect string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, dialect, driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	// Dir holds one sub-directory of SQL files per dialect.
	Dir             string
	Dialect         string
	MigrationsTable string
	Logger          Logger
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "migrations"
	}
	if strings.TrimSpace(cfg.Dialect) == "" {
		cfg.Dialect = DialectPostgres
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = "schema_migrations"
	}
	return cfg
}

func (cfg Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

// sourceURL points golang-migrate at <Dir>/<Dialect>. ToSlash keeps Windows
// paths valid inside a file:// URL.
func (cfg Config) sourceURL() (string, error) {
	dir, err := filepath.Abs(filepath.Join(cfg.Dir, cfg.Dialect))
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}).String(), nil
}

type direction string

const (
	directionUp   direction = "up"
	directionDown direction = "down"
)

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg.withDefaults(), directionUp)
}

// Down rolls every applied migration back.
func Down(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg.withDefaults(), directionDown)
}

func run(ctx context.Context, db *sql.DB, cfg Config, dir direction) error {
	if db == nil {
		return errors.New("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := cfg.sourceURL()
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: %s driver: %w", cfg.Dialect, err)
	}

	m, err := migratorFactory(source, cfg.Dialect, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			if err := multierr.Combine(m.Close()); err != nil && cfg.Logger != nil {
				cfg.Logger.Warn("Failed to close migrator", "error", err)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "direction", dir, "dialect", cfg.Dialect, "source", source, "table", cfg.MigrationsTable)

	step := m.Up
	if dir == directionDown {
		step = m.Down
	}

	done := make(chan error, 1)
	go func() { done <- step() }()

	select {
	case <-ctx.Done():
		// migrate takes no context; closing is the only way to interrupt it.
		closeMigrator()
		return ctx.Err()
	case err := <-done:
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			cfg.info("No migrations to apply")
			return nil
		case err != nil:
			return fmt.Errorf("migrations: %s: %w", dir, err)
		}
	}

	cfg.info("Migrations applied successfully", "direction", dir)
	return nil
}
