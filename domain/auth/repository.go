package auth

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=auth

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/archive-waitlist/internal/models"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// FindByEmail returns the oldest user with this email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// UpsertByOpenID inserts the user or refreshes the profile of the existing one.
	UpsertByOpenID(ctx context.Context, user *models.User) (*models.User, error)
	TouchLastSignedIn(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (ur *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	if err := ur.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapLookupError(err)
	}

	return &user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := ur.db.WithContext(ctx).
		Where("email = ?", email).
		Order("id ASC").
		First(&user).Error
	if err != nil {
		return nil, mapLookupError(err)
	}

	return &user, nil
}

func (ur *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ur.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflictError("user already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create user", err)
	}

	return user, nil
}

func (ur *userRepository) UpsertByOpenID(ctx context.Context, user *models.User) (*models.User, error) {
	db := ur.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "open_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "login_method", "last_signed_in", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError("unable to save user", err)
	}

	// The primary key is not reported back on the update path by every driver.
	var stored models.User
	if err := db.Where("open_id = ?", user.OpenID).First(&stored).Error; err != nil {
		return nil, mapLookupError(err)
	}

	return &stored, nil
}

func (ur *userRepository) TouchLastSignedIn(ctx context.Context, id uint, at time.Time) error {
	err := ur.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_signed_in", at).Error
	if err != nil {
		return apperrors.NewDatabaseError("unable to update user", err)
	}
	return nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError("user not found", err)
	}
	return apperrors.NewDatabaseError("unable to fetch user", err)
}
