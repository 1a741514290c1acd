package dto

import (
	"time"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// RegisterRequest describes a new account.
type RegisterRequest struct {
	Username  string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" form:"password" validate:"required,min=6,max=128"`
	Email     string `json:"email" form:"email" validate:"required,email"`
	Role      string `json:"role" form:"role" validate:"required,oneof=teacher student"`
	Name      string `json:"name" form:"name" validate:"required,max=255"`
	ClassName string `json:"class_name" form:"class_name" validate:"omitempty,max=64"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Name       string     `json:"name"`
	ClassName  *string    `json:"class_name"`
	LastActive *time.Time `json:"last_active,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// LoginResponse returns the authenticated user together with a bearer token.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:         model.ID,
		Username:   model.Username,
		Email:      model.Email,
		Role:       model.Role,
		Name:       model.Name,
		ClassName:  model.ClassName,
		LastActive: model.LastActive,
		CreatedAt:  model.CreatedAt,
	}
}
