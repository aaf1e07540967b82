package handlers

import (
	"context"

	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/akqa/lms-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromIdentity(ctx context.Context, identity *oauth.Identity, policy services.RolePolicy) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	AssignRole(ctx context.Context, email, name string, role models.Role) (*models.User, bool, error)
	UpdateRole(ctx context.Context, id *uuid.UUID, email string, role models.Role) (*models.User, error)
}

// TrainingServiceInterface defines the methods used by handlers from TrainingService
type TrainingServiceInterface interface {
	List(ctx context.Context, filter services.TrainingFilter) ([]models.Training, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Training, error)
	Create(ctx context.Context, in services.NewTraining) (*models.Training, error)
	Update(ctx context.Context, id uuid.UUID, in services.TrainingUpdate) (*models.Training, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoleInvalidator drops cached roles after an admin changes them.
type RoleInvalidator interface {
	Invalidate(userID uuid.UUID)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
