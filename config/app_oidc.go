package config

import (
	"strings"

	"github.com/akeren/archive-waitlist/pkg/utils"
)

type OIDCConfig struct {
	Issuer            string
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	PostLoginRedirect string
	Scopes            []string
}

func NewOIDCConfig() *OIDCConfig {
	scopes := []string{"openid", "profile", "email"}
	if raw := utils.GetEnvTrimmed("OIDC_SCOPES"); raw != "" {
		scopes = strings.Fields(strings.ReplaceAll(raw, ",", " "))
	}

	return &OIDCConfig{
		Issuer:            utils.GetEnvTrimmed("OIDC_ISSUER"),
		ClientID:          utils.GetEnvTrimmed("OIDC_CLIENT_ID"),
		ClientSecret:      utils.GetEnvTrimmed("OIDC_CLIENT_SECRET"),
		RedirectURL:       utils.GetEnvTrimmed("OIDC_REDIRECT_URL"),
		PostLoginRedirect: utils.GetEnvTrimmedOrDefault("OIDC_POST_LOGIN_REDIRECT", "/"),
		Scopes:            scopes,
	}
}

func (oc *OIDCConfig) IsConfigured() bool {
	return oc.Issuer != "" && oc.ClientID != "" && oc.RedirectURL != ""
}
