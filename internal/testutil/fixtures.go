package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/akqa/lms-api/internal/database"
	"github.com/akqa/lms-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser inserts a viewer with a unique akqa.com email unless options say otherwise
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@akqa.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
		Role:  models.RoleViewer,
	}

	for _, opt := range opts {
		opt(user)
	}

	var role string
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, picture_url, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, role, created_at, updated_at
	`, user.Email, user.Name, user.PictureURL, string(user.Role)).Scan(
		&user.ID, &role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	user.Role = models.Role(role)

	return user
}

type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithRole(role models.Role) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// CreateTraining inserts a training taught by instructor, scheduled at the given time
func (f *Fixtures) CreateTraining(t *testing.T, instructor *models.User, category models.Category, at time.Time) *models.Training {
	t.Helper()
	f.counter++

	training := &models.Training{
		Title:        fmt.Sprintf("Training %d", f.counter),
		Description:  "Fixture training",
		Category:     category,
		ConductedBy:  instructor.Name,
		DateTime:     at,
		MeetingLink:  "https://meet.google.com/fixture",
		InstructorID: instructor.ID,
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO trainings (title, description, category, conducted_by, date_time, meeting_link, instructor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, training.Title, training.Description, string(training.Category), training.ConductedBy,
		training.DateTime, training.MeetingLink, training.InstructorID,
	).Scan(&training.ID, &training.CreatedAt, &training.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create training: %v", err)
	}

	return training
}
