package testutil

import (
	"context"
	"time"

	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/akqa/lms-api/internal/services"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromIdentity(ctx context.Context, identity *oauth.Identity, policy services.RolePolicy) (*models.User, error) {
	args := m.Called(ctx, identity, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) AssignRole(ctx context.Context, email, name string, role models.Role) (*models.User, bool, error) {
	args := m.Called(ctx, email, name, role)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) UpdateRole(ctx context.Context, id *uuid.UUID, email string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, id, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTrainingService mocks the TrainingService
type MockTrainingService struct {
	mock.Mock
}

func (m *MockTrainingService) List(ctx context.Context, filter services.TrainingFilter) ([]models.Training, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Training), args.Error(1)
}

func (m *MockTrainingService) GetByID(ctx context.Context, id uuid.UUID) (*models.Training, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Training), args.Error(1)
}

func (m *MockTrainingService) Create(ctx context.Context, in services.NewTraining) (*models.Training, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Training), args.Error(1)
}

func (m *MockTrainingService) Update(ctx context.Context, id uuid.UUID, in services.TrainingUpdate) (*models.Training, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Training), args.Error(1)
}

func (m *MockTrainingService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOAuthProvider) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockOAuthProvider) ConsentURL(redirectOrigin, state string) (string, error) {
	args := m.Called(redirectOrigin, state)
	return args.String(0), args.Error(1)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, redirectOrigin, code string) (*oauth.Identity, error) {
	args := m.Called(ctx, redirectOrigin, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Identity), args.Error(1)
}

// MockSessionIssuer mocks the session signer
type MockSessionIssuer struct {
	mock.Mock
}

func (m *MockSessionIssuer) IssueSession(user *models.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionIssuer) VerifySession(token string) (*dto.SessionUser, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionUser), args.Error(1)
}

// MockRoleCache mocks the role cache
type MockRoleCache struct {
	mock.Mock
}

func (m *MockRoleCache) CurrentRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockRoleCache) Invalidate(userID uuid.UUID) {
	m.Called(userID)
}
