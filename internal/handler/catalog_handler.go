package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// CatalogHandler serves the class to subjects catalog.
type CatalogHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.ContentService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register attaches catalog endpoints to the router group.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.add)
}

func (h *CatalogHandler) list(c *fiber.Ctx) error {
	catalog, err := h.service.Catalog(c.UserContext())
	if err != nil {
		return internalError(h.logger, c, err)
	}
	return utils.SendSuccess(c, "catalog retrieved", catalog)
}

func (h *CatalogHandler) add(c *fiber.Ctx) error {
	var payload dto.CatalogUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	catalog, err := h.service.AddToCatalog(c.UserContext(), payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "class name and at least one subject are required", details)
		}
		switch {
		case errors.Is(err, service.ErrInvalidContentPath), errors.Is(err, service.ErrReservedName):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return internalError(h.logger, c, err)
		}
	}

	return utils.SendSuccess(c, "catalog updated", catalog)
}
