package auth

//go:generate mockgen -source=oidc.go -destination=mock_oidc_test.go -package=auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider drives the authorization code flow against an external issuer.
type OIDCProvider interface {
	AuthCodeURL(state, nonce, verifier string) string
	Exchange(ctx context.Context, code, verifier, nonce string) (*OIDCIdentity, error)
}

type OIDCSettings struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

type oidcProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
	timeout     time.Duration
}

// NewOIDCProvider performs issuer discovery, so it needs network access to the issuer.
func NewOIDCProvider(ctx context.Context, settings OIDCSettings) (OIDCProvider, error) {
	if strings.TrimSpace(settings.Issuer) == "" {
		return nil, errors.New("oidc: issuer is required")
	}
	if strings.TrimSpace(settings.ClientID) == "" {
		return nil, errors.New("oidc: client id is required")
	}
	if strings.TrimSpace(settings.RedirectURL) == "" {
		return nil, errors.New("oidc: redirect url is required")
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}

	scopes := settings.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	if settings.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, settings.HTTPClient)
	}
	ctx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	issuer, err := oidc.NewProvider(ctx, settings.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery failed: %w", err)
	}

	return &oidcProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     issuer.Endpoint(),
			RedirectURL:  settings.RedirectURL,
			Scopes:       scopes,
		},
		verifier:   issuer.Verifier(&oidc.Config{ClientID: settings.ClientID}),
		httpClient: settings.HTTPClient,
		timeout:    settings.Timeout,
	}, nil
}

func (p *oidcProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	)
}

func (p *oidcProvider) Exchange(ctx context.Context, code, verifier, nonce string) (*OIDCIdentity, error) {
	if code == "" {
		return nil, errors.New("oidc: authorization code missing")
	}

	if p.httpClient != nil {
		ctx = oidc.ClientContext(ctx, p.httpClient)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("oidc: exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("oidc: id token missing")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("oidc: verify id token: %w", err)
	}
	if idToken.Nonce != nonce {
		return nil, errors.New("oidc: nonce mismatch")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc: decode claims: %w", err)
	}

	return &OIDCIdentity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
