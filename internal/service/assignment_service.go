package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/events"
	"github.com/noah-isme/learning-gap-api/internal/models"
	"github.com/noah-isme/learning-gap-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrClassRequired indicates a class filter was expected but missing.
	ErrClassRequired = errors.New("class is required")
)

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	ListByClass(ctx context.Context, className string) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	events    events.Publisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, publisher events.Publisher, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		validator: validate,
		events:    publisher,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Subject = strings.TrimSpace(payload.Subject)
	payload.ClassName = strings.TrimSpace(payload.ClassName)
	payload.DueDate = strings.TrimSpace(payload.DueDate)
	payload.Description = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Description)))

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		TeacherID:   teacherID,
		Title:       payload.Title,
		Description: payload.Description,
		Subject:     payload.Subject,
		ClassName:   payload.ClassName,
		DueDate:     payload.DueDate,
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("class", assignment.ClassName).Msg("assignment created")

	created, err := s.repo.GetByID(ctx, assignment.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	response := dto.NewAssignmentResponse(created)

	if s.events != nil {
		if err := s.events.Publish(ctx, events.TypeAssignmentCreated, response); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish assignment event")
		}
	}

	return response, nil
}

func (s *assignmentService) ListByClass(ctx context.Context, className string) ([]dto.AssignmentResponse, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, ErrClassRequired
	}

	assignments, err := s.repo.ListByClass(ctx, className)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}
