// handlers/claim_routes.go
package handlers

import (
	"encoding/hex"
	"strings"

	"presence-rewards-system/middleware"
	"presence-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupClaimRoutes(app *fiber.App, claimService *services.ClaimService, rewardsService *services.RewardsService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Submit a proof-of-presence claim
	securedGroup.Post("/events/:id/claims", func(c *fiber.Ctx) error {
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}

		var req struct {
			Participant string `json:"participant"`
			Credential  string `json:"credential"` // hex-encoded signature over the claim fingerprint
			Timestamp   int64  `json:"timestamp"`  // unix seconds, must fall inside the event window
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Participant == "" || req.Credential == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participant and credential are required"})
		}

		credential, err := hex.DecodeString(strings.TrimPrefix(req.Credential, "0x"))
		if err != nil {
			// Malformed credentials fail verification, they don't 400:
			// the verifier contract treats them as plain false.
			credential = nil
		}

		if err := claimService.SubmitClaim(eventID, req.Participant, credential, req.Timestamp); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "claimed"})
	})

	// Has this participant already claimed?
	securedGroup.Get("/events/:id/claims/:participant", func(c *fiber.Ctx) error {
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}
		claimed, err := claimService.HasClaimed(eventID, c.Params("participant"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"claimed": claimed})
	})

	// Collect the event's skill badges (gold-tier claimants only)
	securedGroup.Post("/events/:id/badges", func(c *fiber.Ctx) error {
		eventID, err := parseEventID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
		}

		var req struct {
			Participant string `json:"participant"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		collected, err := claimService.ClaimSkillBadges(eventID, req.Participant)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"collected": collected})
	})

	// Reward account lookup
	securedGroup.Get("/rewards/:participant", func(c *fiber.Ctx) error {
		rewards, err := rewardsService.GetParticipantRewards(c.Params("participant"))
		if err != nil {
			return respondError(c, err)
		}
		if rewards == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no reward account"})
		}
		return c.JSON(rewards)
	})

	// Claim history
	securedGroup.Get("/rewards/:participant/participations", func(c *fiber.Ctx) error {
		parts, err := rewardsService.ListParticipations(c.Params("participant"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"participations": parts})
	})
}
