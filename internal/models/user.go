package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

const (
	LoginMethodLocal = "local"
	LoginMethodOIDC  = "oidc"
)

// User is the identity record behind a session. Waitlist code only reads it.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	OpenID       string    `gorm:"size:64;not null;uniqueIndex"`
	Name         *string   `gorm:"type:text"`
	Email        *string   `gorm:"size:320;index"`
	LoginMethod  string    `gorm:"size:64"`
	Role         UserRole  `gorm:"size:16;not null;default:user"`
	PasswordHash string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	LastSignedIn time.Time `gorm:"not null"`
}
