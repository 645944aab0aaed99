package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/pkg/constants"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("session: invalid token")
	ErrSessionNotActive = errors.New("session: not active")
)

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// Claims carried by a session token.
type Claims struct {
	OpenID string          `json:"oid"`
	Email  string          `json:"email,omitempty"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
	registry Registry
}

func NewManager(cfg Config, registry Registry) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session: secret must be provided")
	}
	if registry == nil {
		return nil, errors.New("session: registry must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &Manager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		ttl:      ttl,
		now:      now,
		registry: registry,
	}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for user and records it as active.
func (m *Manager) Issue(ctx context.Context, user *models.User) (string, time.Time, error) {
	if user == nil || user.ID == 0 {
		return "", time.Time{}, errors.New("session: user is required")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	sessionID := uuid.NewString()

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	claims := &Claims{
		OpenID: user.OpenID,
		Email:  email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}

	if err := m.registry.Register(ctx, sessionID, m.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("session: register: %w", err)
	}

	return signed, expiresAt, nil
}

// Resolve returns the identity for a token that verifies, has not expired
// and has not been revoked.
func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	active, err := m.registry.IsActive(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("session: lookup: %w", err)
	}
	if !active {
		return nil, ErrSessionNotActive
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject", ErrInvalidToken)
	}

	return &Identity{
		UserID:    uint(userID),
		OpenID:    claims.OpenID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}

// Revoke ends the session behind token. Tokens that no longer verify are
// already unusable and are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.registry.Revoke(ctx, claims.ID)
}

func (m *Manager) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, fmt.Errorf("%w: issuer", ErrInvalidToken)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}

	return &claims, nil
}
