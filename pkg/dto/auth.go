package dto

import (
	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
)

// SessionUser is the public view of a session, as returned by /auth/session.
type SessionUser struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	PictureURL string      `json:"picture_url,omitempty"`
}

type AccessResponse struct {
	Path     string `json:"path"`
	Decision string `json:"decision"`
	Location string `json:"location,omitempty"`
}
