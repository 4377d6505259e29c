package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals(contextUserIDKey).(uint)
	return userID
}

// bearerToken accepts "Bearer <token>" and a bare token.
func bearerToken(header string) string {
	value := strings.TrimSpace(header)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}
