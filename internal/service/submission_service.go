package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/events"
	"github.com/noah-isme/learning-gap-api/internal/models"
	"github.com/noah-isme/learning-gap-api/internal/observability"
	"github.com/noah-isme/learning-gap-api/internal/repository"
	"github.com/noah-isme/learning-gap-api/internal/storage"
)

// ErrSubmissionEmpty indicates a submission carried neither text nor a file.
var ErrSubmissionEmpty = errors.New("submission text or a file is required")

// FileStorage abstracts where submission attachments are kept.
type FileStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader) (string, error)
}

// FileOpener is implemented by storages that can serve files back.
type FileOpener interface {
	Open(relPath string) (afero.File, os.FileInfo, error)
}

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListForAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	OpenFile(ctx context.Context, relPath string) (DownloadFile, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	storage     FileStorage
	events      events.Publisher
	maxSize     int64
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, validate *validator.Validate, fileStorage FileStorage, publisher events.Publisher, maxSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		validator:   validate,
		storage:     fileStorage,
		events:      publisher,
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	payload.SubmissionText = strings.TrimSpace(payload.SubmissionText)
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	hasFile := file != nil && strings.TrimSpace(file.Filename) != ""
	if payload.SubmissionText == "" && !hasFile {
		return dto.SubmissionResponse{}, ErrSubmissionEmpty
	}

	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID:   assignmentID,
		StudentID:      studentID,
		SubmissionText: payload.SubmissionText,
		Status:         models.SubmissionStatusSubmitted,
	}

	if hasFile {
		stored, err := s.storeFile(ctx, assignmentID, studentID, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FilePath = stored
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Bool("has_file", submission.FilePath != "").
		Msg("submission created")

	response := dto.NewSubmissionResponse(submission)
	if s.events != nil {
		if err := s.events.Publish(ctx, events.TypeSubmissionCreated, response); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish submission event")
		}
	}

	return response, nil
}

func (s *submissionService) storeFile(ctx context.Context, assignmentID, studentID uint, file *multipart.FileHeader) (string, error) {
	name := storage.SanitizeFileName(file.Filename)
	if !storage.AllowedExtension(file.Filename) || !storage.AllowedExtension(name) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		return "", ErrFileTypeNotAllowed
	}
	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return "", ErrUploadTooLarge
	}
	if s.storage == nil {
		return "", fmt.Errorf("submission file storage is not configured")
	}

	handle, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	key := fmt.Sprintf("%d/%d/%d-%s", assignmentID, studentID, s.now().Unix(), name)
	reader := &limitedReader{reader: handle, remaining: s.maxSize}
	stored, err := s.storage.Upload(ctx, key, reader)
	if err != nil {
		if reader.exceeded {
			observability.UploadRejected().WithLabelValues("size").Inc()
			return "", ErrUploadTooLarge
		}
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	observability.Uploads().WithLabelValues("submission").Inc()
	return stored, nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListForStudent(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// OpenFile serves an attachment back when the storage keeps files locally.
func (s *submissionService) OpenFile(_ context.Context, relPath string) (DownloadFile, error) {
	opener, ok := s.storage.(FileOpener)
	if !ok {
		return DownloadFile{}, ErrFileNotFound
	}

	file, info, err := opener.Open(relPath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrPathOutsideRoot) {
			return DownloadFile{}, ErrFileNotFound
		}
		return DownloadFile{}, err
	}

	return openedDownload(file, info)
}
