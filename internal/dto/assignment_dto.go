package dto

import (
	"time"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"max=5000"`
	Subject     string `form:"subject" json:"subject" validate:"required,max=128"`
	ClassName   string `form:"class_name" json:"class_name" validate:"required,max=64"`
	DueDate     string `form:"due_date" json:"due_date" validate:"required,max=32"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	TeacherID   uint      `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	ClassName   string    `json:"class_name"`
	DueDate     string    `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		TeacherID:   model.TeacherID,
		TeacherName: model.Teacher.Name,
		Title:       model.Title,
		Description: model.Description,
		Subject:     model.Subject,
		ClassName:   model.ClassName,
		DueDate:     model.DueDate,
		CreatedAt:   model.CreatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
