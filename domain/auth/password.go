package auth

import (
	"errors"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var ErrWeakPassword = errors.New("password must be between 8 and 72 bytes")

// ValidatePassword enforces the length bcrypt can actually hash.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength || len(password) > 72 {
		return ErrWeakPassword
	}
	return nil
}

func HashPassword(password string) (string, error) {
	return hashPasswordWithCost(password, bcrypt.DefaultCost)
}

func hashPasswordWithCost(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck costs as much as a real comparison; used for unknown emails.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		hash, _ := bcrypt.GenerateFromPassword([]byte("archive-waitlist-placeholder"), bcrypt.DefaultCost)
		dummyHash = string(hash)
	})
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
