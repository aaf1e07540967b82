package dto

import (
	"time"

	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
)

type UserResponse struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	PictureURL *string     `json:"picture_url,omitempty"`
	Role       models.Role `json:"role"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AssignRoleRequest creates a user or updates an existing user's role by email.
type AssignRoleRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AssignRoleResponse struct {
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	User    UserResponse `json:"user"`
}

// UpdateRoleRequest targets a user by ID or, failing that, by email.
type UpdateRoleRequest struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Email string     `json:"email,omitempty"`
	Role  string     `json:"role"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		PictureURL: u.PictureURL,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}
