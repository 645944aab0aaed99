package auth

//go:generate mockgen -source=service.go -destination=mock_service_test.go -package=auth

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/internal/session"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const maxOpenIDLength = 64

var requestValidator = validator.New()

type AuthService interface {
	// Login checks email and password and issues a session.
	Login(ctx context.Context, req *LoginRequest) (*SessionGrant, error)
	// Logout revokes the session behind token. Unknown tokens are ignored.
	Logout(ctx context.Context, token string) error
	// Me returns the signed-in user, or nil for anonymous callers.
	Me(ctx context.Context) (*UserResponse, error)
	// CompleteOIDCLogin records the external identity and issues a session.
	CompleteOIDCLogin(ctx context.Context, identity *OIDCIdentity) (*SessionGrant, error)
}

// SessionIssuer is implemented by *session.Manager.
type SessionIssuer interface {
	Issue(ctx context.Context, user *models.User) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
}

type authService struct {
	logger     *log.Logger
	repository UserRepository
	sessions   SessionIssuer
	now        func() time.Time
}

func NewAuthService(logger *log.Logger, repository UserRepository, sessions SessionIssuer) AuthService {
	return &authService{
		logger:     logger,
		repository: repository,
		sessions:   sessions,
		now:        time.Now,
	}
}

func invalidCredentials() error {
	return apperrors.NewUnauthorizedError("Invalid email or password", nil)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*SessionGrant, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := requestValidator.Struct(req); err != nil {
		return nil, apperrors.NewInvalidRequestError("Invalid request payload", err)
	}

	user, err := s.repository.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			burnPasswordCheck(req.Password)
			logger.Info("Login attempt for unknown email")
			return nil, invalidCredentials()
		}
		logger.Error("Failed to look up user", "error", err)
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		logger.Info("Login attempt with wrong password", "user_id", user.ID)
		return nil, invalidCredentials()
	}

	signedInAt := s.now()
	if err := s.repository.TouchLastSignedIn(ctx, user.ID, signedInAt); err != nil {
		logger.Warn("Failed to record sign-in time", "user_id", user.ID, "error", err)
	} else {
		user.LastSignedIn = signedInAt
	}

	return s.issue(ctx, logger, user)
}

func (s *authService) issue(ctx context.Context, logger *log.Logger, user *models.User) (*SessionGrant, error) {
	token, expiresAt, err := s.sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("Failed to issue session", "user_id", user.ID, "error", err)
		return nil, apperrors.NewInternalServerError("Unable to start session", err)
	}

	logger.Info("Session issued", "user_id", user.ID, "login_method", user.LoginMethod)
	return &SessionGrant{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Error("Failed to revoke session", "error", err)
		return apperrors.NewInternalServerError("Unable to end session", err)
	}

	return nil
}

func (s *authService) Me(ctx context.Context) (*UserResponse, error) {
	identity, ok := session.IdentityFromContext(ctx)
	if !ok {
		return nil, nil
	}

	user, err := s.repository.FindByID(ctx, identity.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return ToUserResponse(user), nil
}

func (s *authService) CompleteOIDCLogin(ctx context.Context, identity *OIDCIdentity) (*SessionGrant, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if identity == nil || identity.Subject == "" {
		return nil, apperrors.NewUnauthorizedError("Identity provider returned no subject", nil)
	}
	if len(identity.Subject) > maxOpenIDLength {
		return nil, apperrors.NewUnauthorizedError("Identity provider subject is too long", nil)
	}

	now := s.now()
	user := &models.User{
		OpenID:       identity.Subject,
		LoginMethod:  models.LoginMethodOIDC,
		Role:         models.UserRoleUser,
		LastSignedIn: now,
	}
	if identity.Name != "" {
		name := identity.Name
		user.Name = &name
	}
	if identity.Email != "" {
		email := strings.ToLower(identity.Email)
		user.Email = &email
	}

	stored, err := s.repository.UpsertByOpenID(ctx, user)
	if err != nil {
		logger.Error("Failed to save OIDC user", "error", err)
		return nil, err
	}

	return s.issue(ctx, logger, stored)
}
