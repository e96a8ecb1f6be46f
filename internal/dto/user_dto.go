package dto

import (
	"time"

	"github.com/flagforge/flagforge-api/internal/models"
)

// RegisterRequest creates a new participant account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user sudo"`
}

// LoginRequest checks credentials. No token is issued; the response carries
// the profile the client stores locally.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public shape of an account. The password hash never
// leaves the service.
type UserResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Score      int       `json:"score"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserUpdateRequest is the admin-gated account update.
type UserUpdateRequest struct {
	AdminID       uint    `json:"adminId" validate:"required,gt=0"`
	AdminPassword string  `json:"adminPassword" validate:"required"`
	Username      *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Score         *int    `json:"score" validate:"omitempty,gte=0"`
	Role          *string `json:"role" validate:"omitempty,oneof=user sudo"`
	IsVerified    *bool   `json:"isVerified"`
}

// UserDeleteRequest is the admin-gated account deletion.
type UserDeleteRequest struct {
	AdminID       uint   `json:"adminId" validate:"required,gt=0"`
	AdminPassword string `json:"adminPassword" validate:"required"`
}

// NewUserResponse converts a User model into its API shape.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:         model.ID,
		Username:   model.Username,
		Email:      model.Email,
		Role:       string(model.Role),
		Score:      model.Score,
		IsVerified: model.IsVerified,
		CreatedAt:  model.CreatedAt,
	}
}

// NewUserResponseSlice maps a slice of models.
func NewUserResponseSlice(items []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewUserResponse(item))
	}
	return responses
}
