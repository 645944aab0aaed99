package auth

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/archive-waitlist/internal/models"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"github.com/google/uuid"
)

const localOpenIDPrefix = "local:"

type NewLocalUser struct {
	Email    string `validate:"required,email,max=320"`
	Password string
	Name     string
	Role     models.UserRole `validate:"omitempty,oneof=user admin"`
}

// CreateLocalUser provisions an email/password account. Used by the CLI.
func CreateLocalUser(ctx context.Context, repository UserRepository, input NewLocalUser) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = models.UserRoleUser
	}

	if err := requestValidator.Struct(input); err != nil {
		return nil, apperrors.NewInvalidRequestError("Invalid user details", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error(), err)
	}

	if existing, err := repository.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflictError("a user with this email already exists", nil)
	} else if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, err
	}

	email := input.Email
	user := &models.User{
		OpenID:       localOpenIDPrefix + uuid.NewString(),
		Email:        &email,
		LoginMethod:  models.LoginMethodLocal,
		Role:         input.Role,
		PasswordHash: hash,
		LastSignedIn: time.Now(),
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = &name
	}

	return repository.Create(ctx, user)
}
