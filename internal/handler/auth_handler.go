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

// AuthHandler exposes registration, login and the current account.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth endpoints. limiter guards the credential endpoints
// and protected guards the current-account endpoint.
func (h *AuthHandler) Register(router fiber.Router, limiter, protected fiber.Handler) {
	router.Post("/register", limiter, h.register)
	router.Post("/login", limiter, h.login)
	router.Get("/me", protected, h.me)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid registration details", details)
		}
		if errors.Is(err, service.ErrDuplicateIdentity) {
			return utils.SendError(c, fiber.StatusConflict, "Username or email already exists")
		}
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Registration successful! Please login.", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "username and password are required", details)
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLogger(h.logger, c).Warn().Str("ip", c.IP()).Msg("failed login")
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid username or password")
		}
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	user, err := h.service.GetUser(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}
