package dto

import (
	"time"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// SubmissionCreateRequest carries the text part of a submission.
type SubmissionCreateRequest struct {
	SubmissionText string `form:"submission_text" json:"submission_text" validate:"max=20000"`
}

// SubmissionResponse is the API representation of a submission.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	AssignmentID    uint      `json:"assignment_id"`
	StudentID       uint      `json:"student_id"`
	StudentName     string    `json:"student_name,omitempty"`
	AssignmentTitle string    `json:"assignment_title,omitempty"`
	SubmissionText  string    `json:"submission_text"`
	FilePath        string    `json:"file_path"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// NewSubmissionResponse converts a model to DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		StudentName:     model.Student.Name,
		AssignmentTitle: model.Assignment.Title,
		SubmissionText:  model.SubmissionText,
		FilePath:        model.FilePath,
		Status:          model.Status,
		SubmittedAt:     model.SubmittedAt,
	}
}

// NewSubmissionResponseSlice converts models to DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionResponse(item))
	}
	return responses
}
