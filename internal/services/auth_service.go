package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/cyclecal/internal/models"
	"github.com/terraincognita07/cyclecal/internal/security"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 12

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateDisplayName(ctx context.Context, userID uint, displayName string) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	DeleteAccountAndRelatedData(ctx context.Context, userID uint) error
}

type AuthService struct {
	users AuthUserRepository
	cost  int
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (service *AuthService) WithHashCost(cost int) *AuthService {
	service.cost = cost
	return service
}

func (service *AuthService) Register(ctx context.Context, emailRaw string, passwordRaw string, displayNameRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}
	displayName, err := NormalizeDisplayName(displayNameRaw)
	if err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), service.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:          email,
		PasswordHash:   string(passwordHash),
		DisplayName:    displayName,
		NotifyLeadDays: models.DefaultNotifyLeadDays,
	}
	if err := service.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns ErrAuthCredentialsInvalid for both unknown emails and
// wrong passwords.
func (service *AuthService) Authenticate(ctx context.Context, emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (service *AuthService) UpdateDisplayName(ctx context.Context, userID uint, displayNameRaw string) (string, error) {
	displayName, err := NormalizeDisplayName(displayNameRaw)
	if err != nil {
		return "", err
	}
	if err := service.users.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return "", fmt.Errorf("update display name: %w", err)
	}
	return displayName, nil
}

// DeleteAccount removes the user and every logged date once passwordRaw
// matches the stored hash.
func (service *AuthService) DeleteAccount(ctx context.Context, userID uint, passwordRaw string) error {
	password := strings.TrimSpace(passwordRaw)
	if password == "" {
		return ErrAuthCredentialsInvalid
	}

	user, err := service.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrAuthCredentialsInvalid
	}
	if err := service.users.DeleteAccountAndRelatedData(ctx, user.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the account with a generated one
// and returns it.
func (service *AuthService) ResetPassword(ctx context.Context, emailRaw string) (string, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return "", ErrAuthCredentialsInvalid
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	temporaryPassword, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(temporaryPassword), service.cost)
	if err != nil {
		return "", fmt.Errorf("hash temporary password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, user.ID, string(passwordHash)); err != nil {
		return "", fmt.Errorf("update user password: %w", err)
	}
	return temporaryPassword, nil
}
