package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/utils"
)

// SeedHandler exposes tooling endpoints for seeding sample data.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(seeds service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: seeds,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/challenges", h.challenges)
}

func (h *SeedHandler) challenges(c *fiber.Ctx) error {
	token := c.Get("X-Seed-Token")

	result, err := h.service.SeedChallenges(c.Context(), token)
	if err != nil {
		return h.seedError(c, err)
	}

	return utils.SendSuccess(c, "challenges seeded", result)
}

func (h *SeedHandler) seedError(c *fiber.Ctx, err error) error {
	switch err {
	case service.ErrSeedDisabled:
		return utils.SendError(c, fiber.StatusForbidden, "seeding disabled")
	case service.ErrSeedUnauthorized:
		return utils.SendError(c, fiber.StatusForbidden, "invalid token")
	case service.ErrNoAdminAccount:
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("seed operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "seed operation failed")
	}
}
