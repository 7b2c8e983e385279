// handlers/errors.go
package handlers

import (
	"errors"

	"presence-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto the HTTP surface. Unknown
// errors are 500s with the cause attached.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOwnerOnly):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "owner only"})
	case errors.Is(err, services.ErrInvalidEvent):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrEventInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrParticipantLimit):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidSignature):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	case errors.Is(err, services.ErrInvalidReward):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientPoints):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"cause": err.Error(),
		})
	}
}
