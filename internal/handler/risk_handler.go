package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// RiskHandler serves learning-gap risk predictions.
type RiskHandler struct {
	service service.RiskService
	logger  zerolog.Logger
}

// NewRiskHandler constructs the handler.
func NewRiskHandler(service service.RiskService, logger zerolog.Logger) *RiskHandler {
	return &RiskHandler{
		service: service,
		logger:  logger.With().Str("component", "risk_handler").Logger(),
	}
}

// Register attaches risk prediction endpoints to the router group.
func (h *RiskHandler) Register(router fiber.Router) {
	router.Post("", h.predict)
	router.Get("", h.history)
}

func (h *RiskHandler) predict(c *fiber.Ctx) error {
	var payload dto.RiskPredictionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Please enter valid numeric values")
	}

	result, err := h.service.Predict(c.UserContext(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRiskNamesRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "Please provide student name and class")
		case errors.Is(err, service.ErrNegativeFeatures):
			return utils.SendError(c, fiber.StatusBadRequest, "Please enter valid non-negative values")
		case errors.Is(err, service.ErrNonNumericFeatures):
			return utils.SendError(c, fiber.StatusBadRequest, "Please enter valid numeric values")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("risk prediction failed")
			return utils.SendError(c, fiber.StatusBadGateway, "prediction is currently unavailable")
		}
	}

	return utils.SendSuccess(c, fmt.Sprintf("Prediction generated for %s", result.StudentName), result)
}

func (h *RiskHandler) history(c *fiber.Ctx) error {
	className := strings.TrimSpace(c.Query("class"))
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "limit must be a number")
	}

	items, err := h.service.History(c.UserContext(), className, limit)
	if err != nil {
		if errors.Is(err, service.ErrClassRequired) {
			return utils.SendError(c, fiber.StatusBadRequest, "class query parameter is required")
		}
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "risk history retrieved", items)
}
