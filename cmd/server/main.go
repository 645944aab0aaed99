package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/archive-waitlist/config"
	"github.com/akeren/archive-waitlist/domain"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/spf13/pflag"
)

type serverOptions struct {
	autoMigrate     bool
	shutdownTimeout time.Duration
}

func parseServerFlags(args []string) (*serverOptions, error) {
	opts := &serverOptions{}

	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.BoolVarP(&opts.autoMigrate, "auto-migrate", "m", false, "create or update tables with gorm before serving (development only)")
	fs.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long in-flight requests get to finish on SIGINT/SIGTERM")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.shutdownTimeout <= 0 {
		return nil, fmt.Errorf("--shutdown-timeout must be positive, got %s", opts.shutdownTimeout)
	}
	return opts, nil
}

func main() {
	logger := log.NewLoggerWithJSONOutput()

	opts, err := parseServerFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Error("Invalid arguments", "error", err)
		os.Exit(2)
	}

	if err := run(logger, opts); err != nil {
		logger.Error("Archive waitlist server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, opts *serverOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.LoadApplicationConfiguration(logger, opts.autoMigrate)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err := domain.SetupCoreDomain(ctx, appConfig); err != nil {
		_ = appConfig.Cleanup()
		return fmt.Errorf("set up domain: %w", err)
	}

	logger.Info("Archive waitlist server initialized ✅")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		_ = appConfig.Cleanup()
		if err == nil {
			return errors.New("HTTP server exited unexpectedly")
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()

	shutdownErr := appConfig.RouterService.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		logger.Error("HTTP server shutdown error", "error", shutdownErr)
	} else {
		logger.Info("HTTP server shut down gracefully")
	}

	if err := appConfig.Cleanup(); err != nil {
		return errors.Join(shutdownErr, err)
	}

	logger.Info("Graceful shutdown completed")
	return shutdownErr
}
