package config

import (
	"context"
	"time"

	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/internal/objectstore"
	"github.com/akeren/archive-waitlist/internal/session"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/akeren/archive-waitlist/pkg/utils"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	ObjectStore     objectstore.Store
	Sessions        *session.Manager
	SessionCookie   session.CookieConfig
	OIDC            *OIDCConfig
	Config          *AppConfig
	TracingShutdown func(context.Context) error
	StartedAt       time.Time
}

type AppConfig struct {
	RequestTimeout     time.Duration
	MaxAttachmentBytes int64
	AllowedOrigins     []string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout:     utils.GetEnvDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		MaxAttachmentBytes: utils.GetEnvInt64("MAX_ATTACHMENT_BYTES", constants.DefaultMaxAttachmentBytes),
		AllowedOrigins:     router.ParseAllowedOrigins(GetValueFromEnvironmentVariable("CORS_ALLOWED_ORIGIN", "")),
	}
}

// Cleanup releases everything LoadApplicationConfiguration acquired and
// returns every failure, not just the first.
func (ac *ApplicationConfig) Cleanup() error {
	var err error

	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := ac.TracingShutdown(ctx); shutdownErr != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", shutdownErr)
			err = multierr.Append(err, shutdownErr)
		}
	}

	if ac.DB != nil {
		err = multierr.Append(err, CloseDatabase(ac.DB, ac.Logger))
	}

	if ac.Cache != nil {
		err = multierr.Append(err, CloseCache(ac.Cache, ac.Logger))
	}

	if err != nil {
		ac.Logger.Error("Application cleanup completed with errors", "errors", len(multierr.Errors(err)))
		return err
	}

	ac.Logger.Info("Application cleanup completed")
	return nil
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	ac := &ApplicationConfig{
		Logger:          logger,
		Config:          NewAppConfig(),
		TracingShutdown: tracingShutdown,
		OIDC:            NewOIDCConfig(),
		StartedAt:       time.Now(),
	}

	// Release whatever was acquired if a later step fails.
	fail := func(err error) (*ApplicationConfig, error) {
		_ = ac.Cleanup()
		return nil, err
	}

	ac.DB, err = NewDatabase(logger, NewDBConfig())
	if err != nil {
		return fail(err)
	}

	if autoMigrate {
		if err := AutoMigrate(logger, ac.DB, models.ModelRegistry...); err != nil {
			return fail(err)
		}
	}

	ac.Cache, err = NewCacheConfig().Connect(context.Background(), logger)
	if err != nil {
		return fail(err)
	}

	sessionCfg := NewSessionConfig()
	ac.SessionCookie = sessionCfg.Cookie
	ac.Sessions, err = sessionCfg.NewManager(logger, ac.Cache)
	if err != nil {
		return fail(err)
	}

	storageCfg := NewStorageConfig()
	ac.ObjectStore, err = storageCfg.NewStore(logger)
	if err != nil {
		return fail(err)
	}

	ac.RouterService = router.CreateRouterService(logger, &router.RouterConfig{
		RequestTimeout: ac.Config.RequestTimeout,
		AllowedOrigins: ac.Config.AllowedOrigins,
		Middlewares: []router.MiddlewareFunc{
			session.Middleware(ac.Sessions, ac.SessionCookie, logger),
		},
	})

	if storageCfg.ServesUploads() {
		ac.RouterService.ServeStatic(storageCfg.UploadsMountPath, storageCfg.UploadsDir)
	}

	logger.Info("Application configuration loaded successfully")

	return ac, nil
}
