package domain

import (
	"context"
	"fmt"

	"github.com/akeren/archive-waitlist/config"
	"github.com/akeren/archive-waitlist/domain/auth"
	"github.com/akeren/archive-waitlist/domain/monitoring"
	"github.com/akeren/archive-waitlist/domain/waitlist"
)

func SetupCoreDomain(ctx context.Context, appConfig *config.ApplicationConfig) error {
	var cache monitoring.Pinger
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	monitoringFactory := monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, cache, appConfig.ObjectStore)
	appConfig.RouterService.MountController(monitoringFactory.CreateController())

	waitlistFactory := waitlist.NewWaitlistServiceFactory(
		appConfig.DB,
		appConfig.Logger,
		appConfig.ObjectStore,
		appConfig.Config.MaxAttachmentBytes,
	)
	appConfig.RouterService.MountController(waitlistFactory.CreateController())

	authOptions := auth.ControllerOptions{Cookie: appConfig.SessionCookie}
	if appConfig.OIDC != nil && appConfig.OIDC.IsConfigured() {
		provider, err := auth.NewOIDCProvider(ctx, auth.OIDCSettings{
			Issuer:       appConfig.OIDC.Issuer,
			ClientID:     appConfig.OIDC.ClientID,
			ClientSecret: appConfig.OIDC.ClientSecret,
			RedirectURL:  appConfig.OIDC.RedirectURL,
			Scopes:       appConfig.OIDC.Scopes,
		})
		if err != nil {
			return fmt.Errorf("failed to set up OIDC provider: %w", err)
		}
		authOptions.OIDC = provider
		authOptions.PostLoginRedirect = appConfig.OIDC.PostLoginRedirect
		appConfig.Logger.Info("OIDC sign-in enabled", "issuer", appConfig.OIDC.Issuer)
	}

	authFactory := auth.NewAuthServiceFactory(appConfig.DB, appConfig.Logger, appConfig.Sessions, authOptions)
	appConfig.RouterService.MountController(authFactory.CreateController())

	return nil
}
