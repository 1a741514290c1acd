package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	ListByClass(ctx context.Context, className string) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusSubmitted
	}
	return r.db.WithContext(ctx).Omit("Assignment", "Student").Create(submission).Error
}

// ListByAssignment returns every submission for an assignment, newest first,
// with the submitting student joined in.
func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Joins("Student").
		Where("submissions.assignment_id = ?", assignmentID).
		Order("submissions.submitted_at DESC").
		Order("submissions.id DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Joins("Assignment").
		Where("submissions.student_id = ?", studentID).
		Order("submissions.submitted_at DESC").
		Order("submissions.id DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListByClass returns the submissions to every assignment of a class, newest
// first, with the assignment and the submitting student joined in.
func (r *submissionRepository) ListByClass(ctx context.Context, className string) ([]models.Submission, error) {
	assignmentIDs := r.db.Model(&models.Assignment{}).Select("id").Where("class_name = ?", className)

	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Joins("Assignment").
		Joins("Student").
		Where("submissions.assignment_id IN (?)", assignmentIDs).
		Order("submissions.submitted_at DESC").
		Order("submissions.id DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}
