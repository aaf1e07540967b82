package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/akqa/lms-api/internal/database"
	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrTrainingNotFound   = errors.New("training not found")
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
)

// TrainingFilter narrows List. A zero Category matches every category.
type TrainingFilter struct {
	Category models.Category
	Upcoming bool
}

type NewTraining struct {
	Title        string
	Description  string
	Category     models.Category
	ConductedBy  string
	DateTime     time.Time
	MeetingLink  string
	VideoURL     string
	PPTURL       string
	Summary      string
	InstructorID uuid.UUID
}

// TrainingUpdate is a partial update. Nil fields are left untouched and an
// empty string clears an optional link or the summary.
type TrainingUpdate struct {
	Title        *string
	Description  *string
	Category     *models.Category
	ConductedBy  *string
	DateTime     *time.Time
	MeetingLink  *string
	VideoURL     *string
	PPTURL       *string
	Summary      *string
	InstructorID *uuid.UUID
}

type TrainingService struct {
	db        *database.DB
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewTrainingService(db *database.DB) *TrainingService {
	return &TrainingService{
		db:        db,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

const trainingSelect = `
	SELECT t.id, t.title, t.description, t.category, t.conducted_by, t.date_time,
		t.meeting_link, t.video_url, t.ppt_url, t.summary, t.instructor_id,
		t.created_at, t.updated_at, u.id, u.name, u.email`

func scanTraining(row pgx.Row) (*models.Training, error) {
	var t models.Training
	var category string
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &category, &t.ConductedBy, &t.DateTime,
		&t.MeetingLink, &t.VideoURL, &t.PPTURL, &t.Summary, &t.InstructorID,
		&t.CreatedAt, &t.UpdatedAt, &t.Instructor.ID, &t.Instructor.Name, &t.Instructor.Email,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainingNotFound
		}
		return nil, err
	}
	t.Category = models.Category(category)
	return &t, nil
}

func (s *TrainingService) List(ctx context.Context, filter TrainingFilter) ([]models.Training, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("t.category = $%d", len(args)))
	}
	if filter.Upcoming {
		args = append(args, s.now())
		conditions = append(conditions, fmt.Sprintf("t.date_time >= $%d", len(args)))
	}

	query := trainingSelect + `
	FROM trainings t
	JOIN users u ON u.id = t.instructor_id`
	if len(conditions) > 0 {
		query += "\n\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\tORDER BY t.date_time ASC"

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainings := []models.Training{}
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		trainings = append(trainings, *t)
	}
	return trainings, rows.Err()
}

func (s *TrainingService) GetByID(ctx context.Context, id uuid.UUID) (*models.Training, error) {
	return scanTraining(s.db.Pool.QueryRow(ctx, trainingSelect+`
	FROM trainings t
	JOIN users u ON u.id = t.instructor_id
	WHERE t.id = $1
	`, id))
}

func (s *TrainingService) Create(ctx context.Context, in NewTraining) (*models.Training, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ConductedBy = strings.TrimSpace(in.ConductedBy)
	in.MeetingLink = strings.TrimSpace(in.MeetingLink)
	in.Description = s.plainText(in.Description)

	if in.Title == "" || strings.TrimSpace(in.Description) == "" || in.Category == "" ||
		in.ConductedBy == "" || in.DateTime.IsZero() || in.MeetingLink == "" || in.InstructorID == uuid.Nil {
		return nil, ErrMissingFields
	}
	category, ok := models.ParseCategory(string(in.Category))
	if !ok {
		return nil, ErrInvalidCategory
	}

	t, err := scanTraining(s.db.Pool.QueryRow(ctx, `
	WITH t AS (
		INSERT INTO trainings (title, description, category, conducted_by, date_time,
			meeting_link, video_url, ppt_url, summary, instructor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	)`+trainingSelect+`
	FROM t
	JOIN users u ON u.id = t.instructor_id
	`,
		in.Title, in.Description, string(category), in.ConductedBy, in.DateTime,
		in.MeetingLink, nullableString(strings.TrimSpace(in.VideoURL)),
		nullableString(strings.TrimSpace(in.PPTURL)),
		nullableString(s.plainText(in.Summary)), in.InstructorID,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to create training: %w", err)
	}
	return t, nil
}

func (s *TrainingService) Update(ctx context.Context, id uuid.UUID, in TrainingUpdate) (*models.Training, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrMissingFields
		}
		set("title", title)
	}
	if in.Description != nil {
		description := s.plainText(*in.Description)
		if strings.TrimSpace(description) == "" {
			return nil, ErrMissingFields
		}
		set("description", description)
	}
	if in.Category != nil {
		category, ok := models.ParseCategory(string(*in.Category))
		if !ok {
			return nil, ErrInvalidCategory
		}
		set("category", string(category))
	}
	if in.ConductedBy != nil {
		set("conducted_by", strings.TrimSpace(*in.ConductedBy))
	}
	if in.DateTime != nil {
		set("date_time", *in.DateTime)
	}
	if in.MeetingLink != nil {
		set("meeting_link", strings.TrimSpace(*in.MeetingLink))
	}
	if in.VideoURL != nil {
		set("video_url", nullableString(strings.TrimSpace(*in.VideoURL)))
	}
	if in.PPTURL != nil {
		set("ppt_url", nullableString(strings.TrimSpace(*in.PPTURL)))
	}
	if in.Summary != nil {
		set("summary", nullableString(s.plainText(*in.Summary)))
	}
	if in.InstructorID != nil {
		set("instructor_id", *in.InstructorID)
	}

	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(`
	WITH t AS (
		UPDATE trainings SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING *
	)`, strings.Join(sets, ", "), len(args)) + trainingSelect + `
	FROM t
	JOIN users u ON u.id = t.instructor_id
	`

	t, err := scanTraining(s.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInstructorNotFound
		}
		if errors.Is(err, ErrTrainingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update training: %w", err)
	}
	return t, nil
}

func (s *TrainingService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM trainings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTrainingNotFound
	}
	return nil
}

// plainText strips markup from free text and returns it unescaped, so the
// stored value is what the author typed minus any tags.
func (s *TrainingService) plainText(text string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(text))
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
