package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/repository"
)

// ErrSubjectRequired indicates a progress update named no subject.
var ErrSubjectRequired = errors.New("subject is required")

// ProgressService tracks per-subject progress of students.
type ProgressService interface {
	Upsert(ctx context.Context, studentID uint, subject string, payload dto.ProgressUpdateRequest) (dto.ProgressResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.ProgressResponse, error)
}

type progressService struct {
	repo      repository.ProgressRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProgressService constructs a progress service.
func NewProgressService(repo repository.ProgressRepository, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "progress_service").Logger(),
	}
}

// Upsert creates the (student, subject) row on first use and afterwards only
// changes the fields present in payload.
func (s *progressService) Upsert(ctx context.Context, studentID uint, subject string, payload dto.ProgressUpdateRequest) (dto.ProgressResponse, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return dto.ProgressResponse{}, ErrSubjectRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProgressResponse{}, err
	}

	record, err := s.repo.Upsert(ctx, repository.ProgressUpdate{
		StudentID:       studentID,
		Subject:         subject,
		TopicsCompleted: payload.TopicsCompleted,
		AssessmentScore: payload.AssessmentScore,
		MaterialsViewed: payload.MaterialsViewed,
	})
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	s.logger.Debug().Uint("student_id", studentID).Str("subject", subject).Msg("progress updated")

	return dto.NewProgressResponse(record), nil
}

func (s *progressService) ListForStudent(ctx context.Context, studentID uint) ([]dto.ProgressResponse, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewProgressResponseSlice(records), nil
}
