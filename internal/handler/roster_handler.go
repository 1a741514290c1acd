package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// RosterHandler serves the teacher's class dashboard.
type RosterHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service service.RosterService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		logger:  logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register attaches roster endpoints to the router group.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Get("", h.dashboard)
	router.Patch("/students/:id", h.updateStatus)
}

func (h *RosterHandler) dashboard(c *fiber.Ctx) error {
	className := strings.TrimSpace(c.Query("class"))
	if className == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "class query parameter is required")
	}

	dashboard, err := h.service.Dashboard(c.UserContext(), className)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class dashboard retrieved", dashboard)
}

func (h *RosterHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RosterStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.UpdateStatus(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("student_id", student.ID).
		Str("attendance", student.Attendance).
		Str("risk_level", student.RiskLevel).
		Msg("student roster status changed")

	return utils.SendSuccess(c, "Student updated successfully!", student)
}

func (h *RosterHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "attendance must be Present or Absent and risk_level Low, Medium or High", details)
	}

	switch {
	case errors.Is(err, service.ErrClassRequired), errors.Is(err, service.ErrRosterUpdateEmpty):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		return internalError(h.logger, c, err)
	}
}
