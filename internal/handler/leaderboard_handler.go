package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/utils"
)

// LeaderboardHandler serves ranked standings and score-over-time series.
type LeaderboardHandler struct {
	leaderboard service.LeaderboardService
	logger      zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(leaderboard service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		logger:      logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches leaderboard endpoints to the router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/progress", h.progress)
	router.Get("", h.top)
}

func (h *LeaderboardHandler) progress(c *fiber.Ctx) error {
	hours, err := parseQueryInt(c, "hours")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid hours parameter")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit parameter")
	}

	progress, err := h.leaderboard.Progress(c.Context(), hours, limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build leaderboard progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard progress retrieved", progress)
}

func (h *LeaderboardHandler) top(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit parameter")
	}

	users, err := h.leaderboard.TopUsers(c.Context(), limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load leaderboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", users)
}
