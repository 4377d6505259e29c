package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/services"
)

// AuthRequired resolves the Authorization header to a user that still
// exists and stores its id in the request locals.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	userID, err := handler.parseToken(bearerToken(c.Get(fiber.HeaderAuthorization)))
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if _, err := handler.authService.FindByID(c.UserContext(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return apiError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		return apiError(c, fiber.StatusInternalServerError, "failed to load user")
	}

	c.Locals(contextUserIDKey, userID)
	return c.Next()
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}
