package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// SearchHandler exposes search history aggregates.
type SearchHandler struct {
	service service.SearchService
	logger  zerolog.Logger
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(service service.SearchService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger.With().Str("component", "search_handler").Logger(),
	}
}

// Register attaches search endpoints to the router group.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/popular", h.popular)
}

func (h *SearchHandler) popular(c *fiber.Ctx) error {
	items, err := h.service.Popular(c.UserContext())
	if err != nil {
		return internalError(h.logger, c, err)
	}
	return utils.SendSuccess(c, "popular searches retrieved", items)
}
