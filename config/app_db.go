package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver          string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		Driver:          strings.ToLower(sanitizeEnv(GetValueFromEnvironmentVariable("DB_DRIVER", DriverPostgres))),
		MaxIdleConns:    int(utils.GetEnvInt64("DB_MAX_IDLE_CONNS", 10)),
		MaxOpenConns:    int(utils.GetEnvInt64("DB_MAX_OPEN_CONNS", 100)),
		ConnMaxLifetime: utils.GetEnvDuration("DB_CONN_MAX_LIFETIME", time.Minute),
		SSLMode:         "require",
	}
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}

	dialector, err := buildDialector(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// One writer; also keeps an in-memory database on a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully", "driver", cfg.Driver)
	return gdb, nil
}

func buildDialector(logger *log.Logger, cfg *DBConfig) (gorm.Dialector, error) {
	appDatabaseURL := sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", ""))

	switch cfg.Driver {
	case DriverPostgres:
		if appDatabaseURL != "" {
			logger.Info("Using APP_DATABASE_URL for database connection")
			return postgres.Open(appDatabaseURL), nil
		}
		dsn, err := postgresDSNFromEnv(logger, cfg)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil

	case DriverMySQL:
		if appDatabaseURL != "" {
			logger.Info("Using APP_DATABASE_URL for database connection")
			return mysql.Open(appDatabaseURL), nil
		}
		dsn, err := mysqlDSNFromEnv(logger)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil

	case DriverSQLite:
		dsn, err := sqliteDSN(appDatabaseURL, sanitizeEnv(GetValueFromEnvironmentVariable("SQLITE_PATH", "")))
		if err != nil {
			return nil, err
		}
		logger.Info("Connecting to database", "driver", DriverSQLite, "dsn", dsn)
		return sqlite.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: postgres, mysql, sqlite)", cfg.Driver)
	}
}

// connParams are the server connection settings read from <PREFIX>_* variables.
type connParams struct {
	Host, Port, User, Password, DBName string
}

// readConnParams reads prefix-scoped connection variables, applying defaults
// and reporting every required variable that is still empty.
func readConnParams(prefix string, defaults connParams, required ...string) (connParams, int, error) {
	env := func(name, fallback string) string {
		return sanitizeEnv(GetValueFromEnvironmentVariable(prefix+"_"+name, fallback))
	}

	p := connParams{
		Host:     env("HOST", defaults.Host),
		Port:     env("PORT", defaults.Port),
		User:     env("USER", defaults.User),
		Password: env("PASSWORD", ""),
		DBName:   env("DB_NAME", defaults.DBName),
	}

	values := map[string]string{"HOST": p.Host, "PORT": p.Port, "USER": p.User, "DB_NAME": p.DBName}
	var missing []string
	for _, name := range required {
		if values[name] == "" {
			missing = append(missing, prefix+"_"+name)
		}
	}
	if len(missing) > 0 {
		return p, 0, fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(p.Port)
	if err != nil {
		return p, 0, fmt.Errorf("invalid %s_PORT %q: %w", prefix, p.Port, err)
	}
	return p, port, nil
}

func postgresDSNFromEnv(logger *log.Logger, cfg *DBConfig) (string, error) {
	p, port, err := readConnParams("POSTGRES", connParams{}, "HOST", "PORT", "USER", "DB_NAME")
	if err != nil {
		logger.Error("Invalid database configuration", "driver", DriverPostgres, "error", err)
		return "", err
	}

	ssl := sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))
	if ssl == "" {
		ssl = cfg.SSLMode
	}

	logger.Info("Connecting to database", "driver", DriverPostgres, "host", p.Host, "port", port, "user", p.User, "dbname", p.DBName, "sslmode", ssl)

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, port, p.User, p.Password, p.DBName, ssl), nil
}

func mysqlDSNFromEnv(logger *log.Logger) (string, error) {
	p, port, err := readConnParams("MYSQL", connParams{Host: "127.0.0.1", Port: "3306"}, "USER", "DB_NAME")
	if err != nil {
		logger.Error("Invalid database configuration", "driver", DriverMySQL, "error", err)
		return "", err
	}

	logger.Info("Connecting to database", "driver", DriverMySQL, "host", p.Host, "port", port, "user", p.User, "dbname", p.DBName)

	credentials := p.User
	if p.Password != "" {
		credentials += ":" + p.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&loc=UTC&parseTime=True", credentials, p.Host, port, p.DBName), nil
}

func sqliteDSN(override, path string) (string, error) {
	if override != "" {
		return override, nil
	}

	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared", nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	return fmt.Sprintf("file:%s?_journal_mode=WAL", filepath.ToSlash(path)), nil
}

// sanitizeEnv trims whitespace and one pair of matching surrounding quotes.
func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return err
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
		return err
	}

	logger.Info("Database closed successfully")
	return nil
}
