package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akqa/lms-api/internal/database"
	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/oauth"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidRole    = errors.New("invalid role")
	ErrEmailRequired  = errors.New("email is required")
	ErrNameRequired   = errors.New("name is required for new users")
	ErrTargetRequired = errors.New("user id or email is required")
)

// RolePolicy decides the initial role for an email that has no account yet.
type RolePolicy interface {
	Decide(email string) (models.Role, error)
}

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, email, name, picture_url, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PictureURL,
		&role, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrCreateFromIdentity returns the account for a verified identity. A
// returning user keeps their stored role and only has name and picture
// refreshed. A new user gets the role chosen by policy.
func (s *UserService) FindOrCreateFromIdentity(ctx context.Context, identity *oauth.Identity, policy RolePolicy) (*models.User, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.GetByEmail(ctx, email)
	if err == nil {
		return s.refreshProfile(ctx, user, identity)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	role, err := policy.Decide(email)
	if err != nil {
		return nil, err
	}

	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, picture_url, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, identity.Name, nullableString(identity.PictureURL), string(role),
	))
	if err != nil {
		// Another login for the same email won the insert.
		if isUniqueViolation(err) {
			return s.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *UserService) refreshProfile(ctx context.Context, user *models.User, identity *oauth.Identity) (*models.User, error) {
	name := identity.Name
	if name == "" {
		name = user.Name
	}
	picture := nullableString(identity.PictureURL)
	if picture == nil {
		picture = user.PictureURL
	}

	if name == user.Name && equalStringPtr(picture, user.PictureURL) {
		return user, nil
	}

	_, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET name = $1, picture_url = $2, updated_at = NOW()
		WHERE id = $3
	`, name, picture, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user profile: %w", err)
	}

	user.Name = name
	user.PictureURL = picture
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1
	`, normalizeEmail(email)))
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// AssignRole updates the role of the user with the given email, or creates
// that user when none exists. created reports which happened.
func (s *UserService) AssignRole(ctx context.Context, email, name string, role models.Role) (user *models.User, created bool, err error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, ErrEmailRequired
	}
	if !role.Valid() {
		return nil, false, ErrInvalidRole
	}

	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING `+userColumns,
		string(role), email,
	))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to update role: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrNameRequired
	}

	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, name, string(role),
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}

// UpdateRole changes the role of an existing user, addressed by id when set
// and by email otherwise.
func (s *UserService) UpdateRole(ctx context.Context, id *uuid.UUID, email string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	switch {
	case id != nil && *id != uuid.Nil:
		return scanUser(s.db.Pool.QueryRow(ctx, `
			UPDATE users SET role = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING `+userColumns,
			string(role), *id,
		))
	case normalizeEmail(email) != "":
		return scanUser(s.db.Pool.QueryRow(ctx, `
			UPDATE users SET role = $1, updated_at = NOW()
			WHERE email = $2
			RETURNING `+userColumns,
			string(role), normalizeEmail(email),
		))
	default:
		return nil, ErrTargetRequired
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
