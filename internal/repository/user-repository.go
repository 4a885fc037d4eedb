package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundayYogurt/image_service/internal/domain"
	"github.com/SundayYogurt/image_service/internal/helper"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserById(ctx context.Context, userID uint) (*domain.User, error)
	UpdateName(ctx context.Context, userID uint, name string) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	SetResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) error
	DeleteUser(ctx context.Context, userID uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if helper.IsDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(user).Error; err != nil {
		return nil, notFound(err, "find user by email")
	}
	return user, nil
}

func (r *userRepository) FindUserById(ctx context.Context, userID uint) (*domain.User, error) {
	user := &domain.User{}
	if err := r.db.WithContext(ctx).First(user, userID).Error; err != nil {
		return nil, notFound(err, "find user by id")
	}
	return user, nil
}

// UpdateName writes only the name column, leaving password and token state
// to the flows that own them.
func (r *userRepository) UpdateName(ctx context.Context, userID uint, name string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("name", name)
	return affected(res, "update name")
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash)
	return affected(res, "update password")
}

// SetResetToken replaces any earlier token; only the latest pair is valid.
func (r *userRepository) SetResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token":        tokenHash,
			"reset_token_expiry": expiresAt,
		})
	return affected(res, "set reset token")
}

// ConsumeVerificationToken marks the owner verified and clears the token in a
// single conditional UPDATE, so a token can succeed at most once even under
// concurrent requests.
func (r *userRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("verify_token = ?", tokenHash).
		Updates(map[string]interface{}{
			"is_verified":  true,
			"verify_token": nil,
		})
	return affected(res, "consume verification token")
}

// ConsumeResetToken sets the new password hash and clears the reset token if
// the token matches and expires strictly after now.
func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("reset_token = ? AND reset_token_expiry > ?", tokenHash, now).
		Updates(map[string]interface{}{
			"password":           passwordHash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})
	return affected(res, "consume reset token")
}

func (r *userRepository) DeleteUser(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, userID)
	return affected(res, "delete user")
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res *gorm.DB, op string) error {
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
