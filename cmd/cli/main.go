package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/akeren/archive-waitlist/config"
	"github.com/akeren/archive-waitlist/domain/auth"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/pkg/migrations"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

var errUsage = errors.New("usage")

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	if err := run(logger, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("Command failed", "error", err.Error())
		}
		os.Exit(1)
	}
}

func run(logger *log.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errUsage
	}

	switch args[0] {
	case "migrate":
		return runMigrate(logger, args[1:])

	case "create-user":
		return runCreateUser(logger, args[1:], out)

	case "help", "-h", "--help":
		printUsage(out)
		return nil

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage(out)
		return errUsage
	}
}

func runMigrate(logger *log.Logger, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("unknown migrate direction %q, expected up or down", direction)
	}

	dbCfg := config.NewDBConfig()
	db, err := config.NewDatabase(logger, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database for migration: %w", err)
	}
	defer closeDB(logger, db)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance for migration: %w", err)
	}

	migrationCfg := migrations.Config{
		Dir:     utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Dialect: dbCfg.Driver,
		Logger:  logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if direction == "down" {
		err = migrations.Down(ctx, sqlDB, migrationCfg)
	} else {
		err = migrations.Up(ctx, sqlDB, migrationCfg)
	}
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("Database migrations completed", "direction", direction)
	return nil
}

type createUserOptions struct {
	email    string
	password string
	name     string
	role     string
}

func parseCreateUserFlags(args []string) (*createUserOptions, error) {
	opts := &createUserOptions{}

	fs := pflag.NewFlagSet("create-user", pflag.ContinueOnError)
	fs.StringVar(&opts.email, "email", "", "email address used to log in (required)")
	fs.StringVar(&opts.password, "password", "", "password, 8 to 72 bytes (required; defaults to $CREATE_USER_PASSWORD)")
	fs.StringVar(&opts.name, "name", "", "display name")
	fs.StringVar(&opts.role, "role", string(models.UserRoleUser), "user or admin")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.password == "" {
		opts.password = os.Getenv("CREATE_USER_PASSWORD")
	}
	if opts.email == "" || opts.password == "" {
		return nil, errors.New("--email and --password are required")
	}

	return opts, nil
}

func runCreateUser(logger *log.Logger, args []string, out io.Writer) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}

	db, err := config.NewDatabase(logger, config.NewDBConfig())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer closeDB(logger, db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := auth.CreateLocalUser(ctx, auth.NewUserRepository(db), auth.NewLocalUser{
		Email:    opts.email,
		Password: opts.password,
		Name:     opts.name,
		Role:     models.UserRole(opts.role),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created user %d (%s, role %s)\n", user.ID, *user.Email, user.Role)
	return nil
}

func closeDB(logger *log.Logger, db *gorm.DB) {
	if err := config.CloseDatabase(db, logger); err != nil {
		logger.Warn("Failed to close database", "error", err.Error())
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: cli <command>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  migrate [up|down]  Apply or roll back SQL migrations for DB_DRIVER")
	fmt.Fprintln(out, "  create-user        Create a local account: --email --password [--name] [--role user|admin]")
}
