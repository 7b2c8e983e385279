// handlers/event_routes.go
package handlers

import (
	"errors"
	"strconv"

	"presence-rewards-system/middleware"
	"presence-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, eventService *services.EventService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Admin: register a new event
	securedGroup.Post("/admin/events", func(c *fiber.Ctx) error {
		callerID := c.Locals("user_id").(string)

		var in services.CreateEventInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		event, err := eventService.CreateEvent(callerID, in)
		if err != nil {
			// Creation failures are parameter problems, not lookups
			if errors.Is(err, services.ErrInvalidEvent) || errors.Is(err, services.ErrInvalidReward) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event_id": event.ID, "event": event})
	})

	// Admin: toggle the active flag
	securedGroup.Patch("/admin/events/:id/status", func(c *fiber.Ctx) error {
		callerID := c.Locals("user_id").(string)
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}

		var req struct {
			Active bool `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		active, err := eventService.SetEventStatus(callerID, eventID, req.Active)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"event_id": eventID, "active": active})
	})

	// Admin: attach artwork
	securedGroup.Post("/admin/events/:id/artwork", func(c *fiber.Ctx) error {
		callerID := c.Locals("user_id").(string)
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}

		file, err := c.FormFile("artwork")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "artwork file required"})
		}

		url, err := eventService.AttachArtwork(callerID, eventID, file)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"event_id": eventID, "artwork_url": url})
	})

	securedGroup.Get("/events", func(c *fiber.Ctx) error {
		activeOnly := c.Query("active") == "true"
		events, err := eventService.ListEvents(activeOnly)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"events": events})
	})

	securedGroup.Get("/events/:id", func(c *fiber.Ctx) error {
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}
		event, err := eventService.GetEvent(eventID)
		if err != nil {
			return respondError(c, err)
		}
		if event == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.JSON(event)
	})
}

func parseEventID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
