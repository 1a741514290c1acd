package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/middleware"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// ProgressHandler exposes the caller's per-subject progress.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches progress endpoints to the router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Put("/:subject", h.upsert)
}

func (h *ProgressHandler) list(c *fiber.Ctx) error {
	studentID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	items, err := h.service.ListForStudent(c.UserContext(), studentID)
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", items)
}

func (h *ProgressHandler) upsert(c *fiber.Ctx) error {
	studentID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ProgressUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.service.Upsert(c.UserContext(), studentID, pathParam(c, "subject"), payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "progress values must be non-negative", details)
		}
		if errors.Is(err, service.ErrSubjectRequired) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "progress updated", item)
}
