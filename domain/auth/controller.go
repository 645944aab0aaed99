package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/akeren/archive-waitlist/config/router"
	"github.com/akeren/archive-waitlist/internal/session"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	oidcStateCookie    = "oidc_state"
	oidcNonceCookie    = "oidc_nonce"
	oidcVerifierCookie = "oidc_verifier"
	oidcFlowPath       = "/v1/auth/oidc"
	oidcFlowMaxAge     = 10 * time.Minute
)

type ControllerOptions struct {
	Cookie session.CookieConfig
	// OIDC is nil when no issuer is configured; the redirect routes are then not mounted.
	OIDC              OIDCProvider
	PostLoginRedirect string
}

func NewAuthController(factory AuthServiceFactory, opts ControllerOptions) *router.RESTController {
	if opts.PostLoginRedirect == "" {
		opts.PostLoginRedirect = "/"
	}

	return router.NewVersionedRESTController(
		"AuthController",
		"v1",
		"/auth",
		func(rs *router.RouterService, c *router.RESTController) {
			service := factory.CreateService()

			rs.AddPostHandler(c, "login", loginHandler(service, opts.Cookie))
			rs.AddPostHandler(c, "logout", logoutHandler(service, opts.Cookie))
			rs.AddGetHandler(c, "me", meHandler(service))

			if opts.OIDC != nil {
				rs.AddGetHandler(c, "oidc/login", oidcLoginHandler(opts.OIDC, opts.Cookie))
				rs.AddGetHandler(c, "oidc/callback", oidcCallbackHandler(service, opts.OIDC, opts.Cookie, opts.PostLoginRedirect))
			}
		},
	)
}

func loginHandler(service AuthService, cookie session.CookieConfig) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req LoginRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)
			if tooLarge := router.PayloadTooLargeResult(err); tooLarge != nil {
				return tooLarge
			}
			return router.BadRequestResult("Invalid request body", nil)
		}

		grant, err := service.Login(ctx.Request.Context(), &req)
		if err != nil {
			if validationErrors := apperrors.FormatValidationErrors(err, &req); len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}
			return router.AppErrorResult(err)
		}

		cookie.Set(ctx.Writer, grant.Token, grant.ExpiresAt, time.Now())
		return router.OKResult(ToLoginResponse(grant), "Login successful").NoStore()
	}
}

func logoutHandler(service AuthService, cookie session.CookieConfig) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if err := service.Logout(ctx.Request.Context(), cookie.TokenFromRequest(ctx.Request)); err != nil {
			return router.AppErrorResult(err)
		}

		cookie.Clear(ctx.Writer)
		return router.OKResult(&LogoutResponse{Success: true}, "Logged out")
	}
}

func meHandler(service AuthService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		user, err := service.Me(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(user, "Current user retrieved").NoStore()
	}
}

func oidcLoginHandler(provider OIDCProvider, cookie session.CookieConfig) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		state := oauth2.GenerateVerifier()
		nonce := oauth2.GenerateVerifier()
		verifier := oauth2.GenerateVerifier()

		setFlowCookie(ctx, cookie, oidcStateCookie, state, int(oidcFlowMaxAge.Seconds()))
		setFlowCookie(ctx, cookie, oidcNonceCookie, nonce, int(oidcFlowMaxAge.Seconds()))
		setFlowCookie(ctx, cookie, oidcVerifierCookie, verifier, int(oidcFlowMaxAge.Seconds()))

		return router.RedirectResult(ctx, provider.AuthCodeURL(state, nonce, verifier))
	}
}

func oidcCallbackHandler(service AuthService, provider OIDCProvider, cookie session.CookieConfig, redirectTo string) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		state, _ := ctx.Cookie(oidcStateCookie)
		nonce, _ := ctx.Cookie(oidcNonceCookie)
		verifier, _ := ctx.Cookie(oidcVerifierCookie)
		for _, name := range []string{oidcStateCookie, oidcNonceCookie, oidcVerifierCookie} {
			setFlowCookie(ctx, cookie, name, "", -1)
		}

		if providerErr := ctx.Query("error"); providerErr != "" {
			logger.Warn("Identity provider returned an error", "error", providerErr)
			return router.UnauthorizedResult("Sign-in was not completed")
		}

		returned := ctx.Query("state")
		if state == "" || nonce == "" || verifier == "" || subtle.ConstantTimeCompare([]byte(state), []byte(returned)) != 1 {
			logger.Warn("OIDC callback with missing or mismatched state")
			return router.UnauthorizedResult("Sign-in session expired, please try again")
		}

		identity, err := provider.Exchange(ctx.Request.Context(), ctx.Query("code"), verifier, nonce)
		if err != nil {
			logger.Error("OIDC code exchange failed", "error", err)
			return router.UnauthorizedResult("Sign-in could not be verified")
		}

		grant, err := service.CompleteOIDCLogin(ctx.Request.Context(), identity)
		if err != nil {
			return router.AppErrorResult(err)
		}

		cookie.Set(ctx.Writer, grant.Token, grant.ExpiresAt, time.Now())
		return router.RedirectResult(ctx, redirectTo)
	}
}

func setFlowCookie(ctx *router.RequestContext, cookie session.CookieConfig, name, value string, maxAge int) {
	// SameSite=Lax so the cookies survive the cross-site redirect back from the issuer.
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, value, maxAge, oidcFlowPath, cookie.Domain, cookie.Secure, true)
}
