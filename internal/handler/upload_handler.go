package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/flagforge/flagforge-api/internal/service"
	"github.com/flagforge/flagforge-api/internal/utils"
)

// UploadHandler handles admin-gated challenge attachment uploads.
type UploadHandler struct {
	service service.UploadService
	gate    service.AdminVerifier
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(uploads service.UploadService, gate service.AdminVerifier, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: uploads,
		gate:    gate,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	adminID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("adminId")), 10, 64)
	if err != nil || adminID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "valid adminId is required")
	}

	if _, err := h.gate.Verify(c.Context(), uint(adminID), c.FormValue("adminPassword")); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUnauthorizedAdmin):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("admin gate check failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(c.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return utils.SendSuccess(c, "upload successful", result)
}
