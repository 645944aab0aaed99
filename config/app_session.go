package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/session"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/akeren/archive-waitlist/pkg/utils"
)

var ErrSessionSecretRequired = errors.New("SESSION_SECRET is required outside development")

type SessionConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Cookie session.CookieConfig
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		Secret: utils.GetEnvTrimmed("SESSION_SECRET"),
		Issuer: utils.GetEnvTrimmedOrDefault("SESSION_ISSUER", "archive-waitlist"),
		TTL:    utils.GetEnvDuration("SESSION_TTL", constants.DefaultSessionTTL),
		Cookie: session.CookieConfig{
			Name:     utils.GetEnvTrimmedOrDefault("SESSION_COOKIE_NAME", constants.DefaultSessionCookieName),
			Domain:   utils.GetEnvTrimmed("COOKIE_DOMAIN"),
			Secure:   utils.GetEnvBool("COOKIE_SECURE", isProductionEnv(GetAppEnv())),
			SameSite: session.ParseSameSite(utils.GetEnvTrimmed("COOKIE_SAMESITE")),
		},
	}
}

// NewManager uses Redis for the active-session registry when the cache
// exposes a client, and an in-memory registry otherwise.
func (sc *SessionConfig) NewManager(logger *log.Logger, cache Cache) (*session.Manager, error) {
	secret := sc.Secret
	if secret == "" {
		if !IsDevelopmentEnv(GetAppEnv()) {
			return nil, ErrSessionSecretRequired
		}
		generated, err := randomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn("SESSION_SECRET not set; using an ephemeral secret, sessions will not survive a restart")
	}

	var registry session.Registry
	if client := GetRedisClient(cache); client != nil {
		registry = session.NewRedisRegistry(client)
		logger.Info("Session registry backed by Redis")
	} else {
		registry = session.NewMemoryRegistry()
		logger.Info("Session registry is in-memory")
	}

	return session.NewManager(session.Config{
		Secret: secret,
		Issuer: sc.Issuer,
		TTL:    sc.TTL,
	}, registry)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
