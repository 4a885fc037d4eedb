package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SundayYogurt/image_service/internal/domain"
	"github.com/SundayYogurt/image_service/internal/dto"
	"github.com/SundayYogurt/image_service/internal/helper"
	"github.com/SundayYogurt/image_service/internal/helper/utils"
	"github.com/SundayYogurt/image_service/internal/repository"
)

const (
	// opaqueTokenBytes is the entropy of verification and reset tokens.
	opaqueTokenBytes = 32

	ResetTokenTTL = 15 * time.Minute
)

type UserService interface {
	// Auth
	Signup(ctx context.Context, input dto.UserSignup) error
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input dto.UserLogin) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input dto.ResetPasswordRequest) error

	// Account
	ChangePassword(ctx context.Context, userID uint, input dto.ChangePasswordRequest) error
	GetProfile(ctx context.Context, userID uint) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, input dto.UpdateUserProfile) (*dto.UserProfileResponse, error)
	DeleteAccount(ctx context.Context, userID uint) error
}

type UserServiceOption func(*userService)

// WithClock overrides the time source used for reset-token expiry.
func WithClock(now func() time.Time) UserServiceOption {
	return func(u *userService) {
		u.now = now
	}
}

type userService struct {
	repo   repository.UserRepository
	images ImageService
	mail   MailService
	auth   helper.Auth
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(
	repo repository.UserRepository,
	images ImageService,
	mail MailService,
	auth helper.Auth,
	logger *slog.Logger,
	opts ...UserServiceOption,
) UserService {
	u := &userService{
		repo:   repo,
		images: images,
		mail:   mail,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// AUTH
func (u *userService) Signup(ctx context.Context, input dto.UserSignup) error {
	name := strings.TrimSpace(input.Name)
	email := utils.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return helper.BadRequest("Please provide valid inputs")
	}

	_, err := u.repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return helper.BadRequest("Email already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return helper.Internal(err)
	}

	hashedPassword, err := u.auth.HashPassword(input.Password)
	if err != nil {
		return helper.Internal(err)
	}

	plainToken, err := utils.RandomToken(opaqueTokenBytes)
	if err != nil {
		return helper.Internal(err)
	}
	tokenHash := utils.Sha256Hex(plainToken)

	usr, err := u.repo.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		VerifyToken:  &tokenHash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return helper.BadRequest("Email already exists")
		}
		return helper.Internal(err)
	}

	if err := u.mail.SendVerifyEmail(ctx, usr.Email, usr.Name, plainToken); err != nil {
		u.logger.ErrorContext(ctx, "verification email failed", "user_id", usr.ID, "error", err)
		return helper.Internal(err)
	}

	u.logger.InfoContext(ctx, "user registered", "user_id", usr.ID)
	return nil
}

func (u *userService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return helper.BadRequest("Invalid token")
	}

	if err := u.repo.ConsumeVerificationToken(ctx, utils.Sha256Hex(token)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.BadRequest("Invalid token")
		}
		return helper.Internal(err)
	}
	return nil
}

// Login answers "User not found" and "Invalid credentials" separately, which
// tells callers whether an email is registered. Clients rely on the two
// messages, so the distinction is kept on purpose.
func (u *userService) Login(ctx context.Context, input dto.UserLogin) (string, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return "", helper.BadRequest("email and password are required")
	}

	user, err := u.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", helper.BadRequest("User not found")
		}
		return "", helper.Internal(err)
	}

	if !user.IsVerified {
		return "", helper.Forbidden("Please verify your email before logging in")
	}

	if err := u.auth.VerifyPassword(input.Password, user.PasswordHash); err != nil {
		return "", helper.BadRequest("Invalid credentials")
	}

	token, err := u.auth.GenerateToken(user.ID)
	if err != nil {
		return "", helper.Internal(err)
	}
	return token, nil
}

func (u *userService) ForgotPassword(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)

	user, err := u.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.NotFound("User not found")
		}
		return helper.Internal(err)
	}

	plain, err := utils.RandomToken(opaqueTokenBytes)
	if err != nil {
		return helper.Internal(err)
	}
	exp := u.now().UTC().Add(ResetTokenTTL)

	if err := u.repo.SetResetToken(ctx, user.ID, utils.Sha256Hex(plain), exp); err != nil {
		return helper.Internal(err)
	}

	if err := u.mail.SendResetPasswordEmail(ctx, user.Email, user.Name, plain); err != nil {
		u.logger.ErrorContext(ctx, "reset email failed", "user_id", user.ID, "error", err)
		return helper.Internal(err)
	}
	return nil
}

// ResetPassword hashes first so that the token check and the password write
// happen in one conditional update.
func (u *userService) ResetPassword(ctx context.Context, input dto.ResetPasswordRequest) error {
	token := strings.TrimSpace(input.Token)
	if token == "" || input.NewPassword == "" {
		return helper.BadRequest("Please provide valid inputs")
	}

	hashedPassword, err := u.auth.HashPassword(input.NewPassword)
	if err != nil {
		return helper.Internal(err)
	}

	err = u.repo.ConsumeResetToken(ctx, utils.Sha256Hex(token), hashedPassword, u.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.BadRequest("Invalid or expired token")
		}
		return helper.Internal(err)
	}
	return nil
}

// ACCOUNT

// ChangePassword leaves already issued session tokens valid.
func (u *userService) ChangePassword(ctx context.Context, userID uint, input dto.ChangePasswordRequest) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return helper.BadRequest("Please provide valid inputs")
	}

	user, err := u.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := u.auth.VerifyPassword(input.CurrentPassword, user.PasswordHash); err != nil {
		return helper.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := u.auth.HashPassword(input.NewPassword)
	if err != nil {
		return helper.Internal(err)
	}
	if err := u.repo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return helper.Internal(err)
	}
	return nil
}

func (u *userService) GetProfile(ctx context.Context, userID uint) (*dto.UserProfileResponse, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

func (u *userService) UpdateProfile(ctx context.Context, userID uint, input dto.UpdateUserProfile) (*dto.UserProfileResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, helper.BadRequest("name cannot be empty")
	}

	if err := u.repo.UpdateName(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NotFound("User not found")
		}
		return nil, helper.Internal(err)
	}

	user, err := u.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(user), nil
}

// DeleteAccount removes the user's images before the user row, which the
// images foreign key requires.
func (u *userService) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := u.findUser(ctx, userID); err != nil {
		return err
	}

	if err := u.images.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}

	if err := u.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.NotFound("User not found")
		}
		return helper.Internal(err)
	}

	u.logger.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func (u *userService) findUser(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := u.repo.FindUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NotFound("User not found")
		}
		return nil, helper.Internal(err)
	}
	return user, nil
}

func toProfile(user *domain.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}
