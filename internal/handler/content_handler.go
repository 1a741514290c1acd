package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/middleware"
	"github.com/noah-isme/learning-gap-api/internal/service"
	"github.com/noah-isme/learning-gap-api/internal/storage"
	"github.com/noah-isme/learning-gap-api/internal/utils"
)

// ContentHandler serves course material uploads, browsing and downloads.
type ContentHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.ContentService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches content endpoints to the router group.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/search", h.search)
	router.Post("", h.upload)
}

// RegisterDownloads attaches the file download endpoint.
func (h *ContentHandler) RegisterDownloads(router fiber.Router) {
	router.Get("/*", h.download)
}

func (h *ContentHandler) list(c *fiber.Ctx) error {
	classSel := c.Query("class", service.SelectAll)
	subjectSel := c.Query("subject", service.SelectAll)

	entries, err := h.service.Resolve(c.UserContext(), classSel, subjectSel)
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentPath) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid class or subject")
		}
		return internalError(h.logger, c, err)
	}

	return utils.OK(c, entries, "content retrieved", fiber.Map{
		"class":   strings.TrimSpace(classSel),
		"subject": strings.TrimSpace(subjectSel),
		"total":   len(entries),
	})
}

func (h *ContentHandler) search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))

	var userID *uint
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	results, err := h.service.Search(c.UserContext(), userID, query)
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "search completed", dto.ContentSearchResponse{
		Query:   query,
		Results: results,
	})
}

func (h *ContentHandler) upload(c *fiber.Ctx) error {
	payload := dto.ContentUploadRequest{
		ClassName: c.FormValue("class_name"),
		Subject:   c.FormValue("subject"),
		Date:      c.FormValue("date"),
		Content:   c.FormValue("content"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	result, err := h.service.Upload(c.UserContext(), payload, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentFieldsRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "Please fill in all required fields (Class, Subject, Date)")
		case errors.Is(err, service.ErrContentRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "Please either write notes or upload a file")
		case errors.Is(err, service.ErrFileTypeNotAllowed):
			allowed := strings.ToUpper(strings.Join(storage.AllowedExtensions(), ", "))
			return utils.SendError(c, fiber.StatusBadRequest, "File type not allowed. Please use: "+allowed)
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrInvalidContentPath), errors.Is(err, service.ErrReservedName),
			errors.Is(err, service.ErrNotesNameConflict):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return internalError(h.logger, c, err)
		}
	}

	requestLogger(h.logger, c).Info().
		Str("class", result.Class).
		Str("subject", result.Subject).
		Str("date", result.Date).
		Msg("content upload accepted")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, result.Message, result)
}

func (h *ContentHandler) download(c *fiber.Ctx) error {
	file, err := h.service.Open(c.UserContext(), pathParam(c, "*"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "file not found")
		}
		return internalError(h.logger, c, err)
	}

	return sendDownload(c, file)
}
