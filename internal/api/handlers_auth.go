package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/services"
	"go.uber.org/zap"
)

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
}

type profileInput struct {
	DisplayName string `json:"display_name"`
}

type deleteAccountInput struct {
	Password string `json:"password"`
}

type profileResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	input := credentialsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Register(c.UserContext(), input.Email, input.Password, input.Name)
	switch {
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return apiError(c, fiber.StatusBadRequest, "email and password are required")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrPasswordTooLong):
		return apiError(c, fiber.StatusBadRequest, "password too long")
	case errors.Is(err, services.ErrDisplayNameTooLong):
		return apiError(c, fiber.StatusBadRequest, "display name too long")
	case errors.Is(err, services.ErrEmailTaken):
		return apiError(c, fiber.StatusBadRequest, "user already exists")
	case err != nil:
		handler.logger.Error("register failed", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to create account")
	}

	return handler.respondWithToken(c, fiber.StatusCreated, user.ID)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	input := credentialsInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	limiterKey := loginLimiterKey(c, input.Email)
	now := handler.now()
	if handler.loginLimiter.blocked(limiterKey, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	user, err := handler.authService.Authenticate(c.UserContext(), input.Email, input.Password)
	if errors.Is(err, services.ErrAuthCredentialsInvalid) {
		handler.loginLimiter.recordFailure(limiterKey, now)
		return apiError(c, fiber.StatusBadRequest, "invalid credentials")
	}
	if err != nil {
		handler.logger.Error("login failed", zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to sign in")
	}
	handler.loginLimiter.reset(limiterKey)

	return handler.respondWithToken(c, fiber.StatusOK, user.ID)
}

func (handler *Handler) respondWithToken(c *fiber.Ctx, status int, userID uint) error {
	token, err := handler.buildToken(userID, authTokenTTL)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to create session")
	}
	return c.Status(status).JSON(tokenResponse{Token: token, UserID: userID})
}

func (handler *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := handler.authService.FindByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(profileResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName})
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	input := profileInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if _, err := handler.authService.UpdateDisplayName(c.UserContext(), currentUserID(c), input.DisplayName); err != nil {
		if errors.Is(err, services.ErrDisplayNameTooLong) {
			return apiError(c, fiber.StatusBadRequest, "display name too long")
		}
		return apiError(c, fiber.StatusInternalServerError, "failed to update profile")
	}
	return handler.GetProfile(c)
}

// DeleteProfile removes the account and its logged dates after checking the
// password again.
func (handler *Handler) DeleteProfile(c *fiber.Ctx) error {
	input := deleteAccountInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	userID := currentUserID(c)
	if err := handler.authService.DeleteAccount(c.UserContext(), userID, input.Password); err != nil {
		if errors.Is(err, services.ErrAuthCredentialsInvalid) {
			return apiError(c, fiber.StatusUnauthorized, "invalid password")
		}
		handler.logger.Error("account deletion failed", zap.Uint("user_id", userID), zap.Error(err))
		return apiError(c, fiber.StatusInternalServerError, "failed to delete account")
	}

	handler.periodCache.Invalidate(userID)
	handler.settingCache.InvalidateSettings(userID)
	handler.logger.Info("account deleted", zap.Uint("user_id", userID))
	return c.JSON(fiber.Map{"ok": true})
}
