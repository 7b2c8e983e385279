// handlers/marketplace_routes.go
package handlers

import (
	"errors"

	"presence-rewards-system/middleware"
	"presence-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMarketplaceRoutes(app *fiber.App, marketplaceService *services.MarketplaceService, redemptionService *services.RedemptionService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Admin: add a catalog item
	securedGroup.Post("/admin/marketplace/items", func(c *fiber.Ctx) error {
		callerID := c.Locals("user_id").(string)

		var in services.AddItemInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		item, err := marketplaceService.AddItem(callerID, in)
		if err != nil {
			if errors.Is(err, services.ErrInvalidReward) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item_id": item.ID, "item": item})
	})

	securedGroup.Get("/marketplace/items", func(c *fiber.Ctx) error {
		items, err := marketplaceService.ListItems()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	})

	securedGroup.Get("/marketplace/items/:id", func(c *fiber.Ctx) error {
		item, err := marketplaceService.GetItem(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if item == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
		}
		return c.JSON(item)
	})

	// Spend points on an item
	securedGroup.Post("/marketplace/items/:id/redemptions", func(c *fiber.Ctx) error {
		var req struct {
			Participant string `json:"participant"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Participant == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant is required"})
		}

		if err := redemptionService.Redeem(c.Params("id"), req.Participant); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "redeemed"})
	})
}
