package dto

import (
	"time"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// ProgressUpdateRequest is a partial progress change; omitted fields keep
// their stored value.
type ProgressUpdateRequest struct {
	TopicsCompleted *int     `json:"topics_completed" validate:"omitempty,gte=0"`
	AssessmentScore *float64 `json:"assessment_score" validate:"omitempty,gte=0"`
	MaterialsViewed *int     `json:"materials_viewed" validate:"omitempty,gte=0"`
}

// ProgressResponse is the API representation of one subject's progress.
type ProgressResponse struct {
	StudentID       uint       `json:"student_id"`
	Subject         string     `json:"subject"`
	TopicsCompleted int        `json:"topics_completed"`
	AssessmentScore *float64   `json:"assessment_score"`
	MaterialsViewed int        `json:"materials_viewed"`
	LastAccessed    *time.Time `json:"last_accessed"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewProgressResponse converts a model to DTO.
func NewProgressResponse(model models.Progress) ProgressResponse {
	return ProgressResponse{
		StudentID:       model.StudentID,
		Subject:         model.Subject,
		TopicsCompleted: model.TopicsCompleted,
		AssessmentScore: model.AssessmentScore,
		MaterialsViewed: model.MaterialsViewed,
		LastAccessed:    model.LastAccessed,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewProgressResponseSlice converts models to DTOs.
func NewProgressResponseSlice(items []models.Progress) []ProgressResponse {
	responses := make([]ProgressResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewProgressResponse(item))
	}
	return responses
}
