package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/dto"
	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/utils"
)

// ChallengeHandler wires challenge management and flag submission routes.
type ChallengeHandler struct {
	challenges service.ChallengeService
	scoring    service.ScoringService
	logger     zerolog.Logger
}

// NewChallengeHandler constructs the handler.
func NewChallengeHandler(challenges service.ChallengeService, scoring service.ScoringService, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		challenges: challenges,
		scoring:    scoring,
		logger:     logger.With().Str("component", "challenge_handler").Logger(),
	}
}

// Register attaches challenge endpoints to the router group. submitLimiter
// throttles flag submissions; pass nil to disable.
func (h *ChallengeHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	if submitLimiter != nil {
		router.Post("/submit", submitLimiter, h.submit)
	} else {
		router.Post("/submit", h.submit)
	}
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ChallengeHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitFlagRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.scoring.Submit(c.Context(), payload, c.IP())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "flag accepted", dto.SubmitFlagResponse{
		Message: "Congratulations! Flag is correct",
		Points:  result.Points,
	})
}

func (h *ChallengeHandler) list(c *fiber.Ctx) error {
	userID, err := parseQueryUint(c, "userId")
	if err != nil || userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "valid userId is required")
	}

	filter := dto.ChallengeFilter{
		UserID:     userID,
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		AsAdmin:    parseQueryBool(c, "admin"),
	}

	challenges, err := h.challenges.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenges retrieved", challenges)
}

func (h *ChallengeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	viewerID, err := parseQueryUint(c, "userId")
	if err != nil || viewerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "valid userId is required")
	}

	challenge, err := h.challenges.Get(c.Context(), id, viewerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge retrieved", challenge)
}

func (h *ChallengeHandler) create(c *fiber.Ctx) error {
	var payload dto.ChallengeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	challenge, err := h.challenges.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "challenge created", challenge)
}

func (h *ChallengeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	challenge, err := h.challenges.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge updated", challenge)
}

func (h *ChallengeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var gate dto.AdminGate
	if err := c.BodyParser(&gate); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.challenges.Delete(c.Context(), id, gate); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "challenge deleted", fiber.Map{"id": id})
}

func (h *ChallengeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidFlagFormat),
		errors.Is(err, service.ErrIncorrectFlag),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidDifficulty),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrUnauthorizedAdmin):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrChallengeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadySolved),
		errors.Is(err, service.ErrDuplicateChallengeName):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
