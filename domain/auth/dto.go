package auth

import (
	"time"

	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/pkg/constants"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

type UserResponse struct {
	ID           uint    `json:"id"`
	OpenID       string  `json:"open_id"`
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	LoginMethod  string  `json:"login_method"`
	Role         string  `json:"role"`
	LastSignedIn string  `json:"last_signed_in"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

// SessionGrant is a freshly issued session for a signed-in user.
type SessionGrant struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// OIDCIdentity holds the verified claims of an ID token.
type OIDCIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// ========================================
// Mappers
// ========================================

func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:           user.ID,
		OpenID:       user.OpenID,
		Name:         user.Name,
		Email:        user.Email,
		LoginMethod:  user.LoginMethod,
		Role:         string(user.Role),
		LastSignedIn: user.LastSignedIn.Format(constants.RFC3339DateTimeFormat),
	}
}

func ToLoginResponse(grant *SessionGrant) *LoginResponse {
	return &LoginResponse{
		User:      *ToUserResponse(grant.User),
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt.Format(constants.RFC3339DateTimeFormat),
	}
}
