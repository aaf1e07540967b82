package services

import (
	"context"
	"testing"
	"time"

	"github.com/akqa/lms-api/internal/database"
	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainingRowColumns = []string{
	"id", "title", "description", "category", "conducted_by", "date_time",
	"meeting_link", "video_url", "ppt_url", "summary", "instructor_id",
	"created_at", "updated_at", "instructor_id", "name", "email",
}

func setupTrainingService(t *testing.T) (*TrainingService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	svc := NewTrainingService(&database.DB{Pool: mock})
	return svc, mock
}

func trainingRows(id, instructorID uuid.UUID, title, category string, at time.Time) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(trainingRowColumns).AddRow(
		id, title, "Intro", category, "Jane", at,
		"https://meet.google.com/abc", nil, nil, nil, instructorID,
		now, now, instructorID, "Jane", "jane@akqa.com",
	)
}

func TestTrainingService_List_NoFilter(t *testing.T) {
	svc, mock := setupTrainingService(t)
	instructorID := uuid.New()
	at := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery(`FROM trainings t\s+JOIN users u ON u.id = t.instructor_id\s+ORDER BY t.date_time ASC`).
		WillReturnRows(trainingRows(uuid.New(), instructorID, "Go basics", "BE", at))

	trainings, err := svc.List(context.Background(), TrainingFilter{})

	require.NoError(t, err)
	require.Len(t, trainings, 1)
	assert.Equal(t, models.CategoryBackend, trainings[0].Category)
	assert.Equal(t, instructorID, trainings[0].Instructor.ID)
	assert.Equal(t, "jane@akqa.com", trainings[0].Instructor.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_List_CategoryAndUpcoming(t *testing.T) {
	svc, mock := setupTrainingService(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`WHERE t.category = \$1 AND t.date_time >= \$2\s+ORDER BY t.date_time ASC`).
		WithArgs("FE", now).
		WillReturnRows(pgxmock.NewRows(trainingRowColumns))

	trainings, err := svc.List(context.Background(), TrainingFilter{
		Category: models.CategoryFrontend,
		Upcoming: true,
	})

	require.NoError(t, err)
	assert.Empty(t, trainings)
	assert.NotNil(t, trainings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()

	mock.ExpectQuery(`WHERE t.id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrTrainingNotFound)
}

func validNewTraining(instructorID uuid.UUID) NewTraining {
	return NewTraining{
		Title:        "Go basics",
		Description:  "Intro<script>alert(1)</script>",
		Category:     models.Category("be"),
		ConductedBy:  "Jane",
		DateTime:     time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		MeetingLink:  "https://meet.google.com/abc",
		InstructorID: instructorID,
	}
}

func TestTrainingService_Create(t *testing.T) {
	svc, mock := setupTrainingService(t)
	instructorID := uuid.New()
	trainingID := uuid.New()
	in := validNewTraining(instructorID)
	in.VideoURL = " https://youtu.be/dQw4w9WgXcQ "
	video := "https://youtu.be/dQw4w9WgXcQ"

	mock.ExpectQuery(`INSERT INTO trainings`).
		WithArgs("Go basics", "Intro", "BE", "Jane", in.DateTime,
			"https://meet.google.com/abc", &video, (*string)(nil), (*string)(nil), instructorID).
		WillReturnRows(trainingRows(trainingID, instructorID, "Go basics", "BE", in.DateTime))

	training, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, trainingID, training.ID)
	assert.Equal(t, models.CategoryBackend, training.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Create_Validation(t *testing.T) {
	svc, _ := setupTrainingService(t)
	instructorID := uuid.New()

	missingTitle := validNewTraining(instructorID)
	missingTitle.Title = "  "
	_, err := svc.Create(context.Background(), missingTitle)
	assert.ErrorIs(t, err, ErrMissingFields)

	missingDate := validNewTraining(instructorID)
	missingDate.DateTime = time.Time{}
	_, err = svc.Create(context.Background(), missingDate)
	assert.ErrorIs(t, err, ErrMissingFields)

	scriptOnly := validNewTraining(instructorID)
	scriptOnly.Description = "<script>alert(1)</script>"
	_, err = svc.Create(context.Background(), scriptOnly)
	assert.ErrorIs(t, err, ErrMissingFields)

	badCategory := validNewTraining(instructorID)
	badCategory.Category = "DevOps"
	_, err = svc.Create(context.Background(), badCategory)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestTrainingService_Create_UnknownInstructor(t *testing.T) {
	svc, mock := setupTrainingService(t)
	in := validNewTraining(uuid.New())

	mock.ExpectQuery(`INSERT INTO trainings`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), in.InstructorID).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	_, err := svc.Create(context.Background(), in)

	assert.ErrorIs(t, err, ErrInstructorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Create_KeepsPlainText(t *testing.T) {
	svc, mock := setupTrainingService(t)
	instructorID := uuid.New()
	in := validNewTraining(instructorID)
	in.Description = `Q&A on "pointers" & <b>interfaces</b>`
	in.Summary = "Tips & tricks, it's <i>fun</i>"
	summary := "Tips & tricks, it's fun"

	mock.ExpectQuery(`INSERT INTO trainings`).
		WithArgs("Go basics", `Q&A on "pointers" & interfaces`, "BE", "Jane", in.DateTime,
			"https://meet.google.com/abc", (*string)(nil), (*string)(nil), &summary, instructorID).
		WillReturnRows(trainingRows(uuid.New(), instructorID, "Go basics", "BE", in.DateTime))

	_, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Update_KeepsPlainText(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()
	instructorID := uuid.New()
	description := "Q&A"

	mock.ExpectQuery(`UPDATE trainings SET description = \$1, updated_at = NOW\(\)\s+WHERE id = \$2`).
		WithArgs("Q&A", id).
		WillReturnRows(trainingRows(id, instructorID, "Go basics", "BE", time.Now()))

	_, err := svc.Update(context.Background(), id, TrainingUpdate{Description: &description})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Update_Partial(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()
	instructorID := uuid.New()
	title := "Advanced Go"
	category := models.Category("qa")
	empty := ""

	mock.ExpectQuery(`UPDATE trainings SET title = \$1, category = \$2, ppt_url = \$3, updated_at = NOW\(\)\s+WHERE id = \$4`).
		WithArgs("Advanced Go", "QA", (*string)(nil), id).
		WillReturnRows(trainingRows(id, instructorID, "Advanced Go", "QA", time.Now()))

	training, err := svc.Update(context.Background(), id, TrainingUpdate{
		Title:    &title,
		Category: &category,
		PPTURL:   &empty,
	})

	require.NoError(t, err)
	assert.Equal(t, "Advanced Go", training.Title)
	assert.Equal(t, models.CategoryQA, training.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Update_NotFound(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()
	title := "Renamed"

	mock.ExpectQuery(`UPDATE trainings SET title = \$1`).
		WithArgs("Renamed", id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Update(context.Background(), id, TrainingUpdate{Title: &title})

	assert.ErrorIs(t, err, ErrTrainingNotFound)
}

func TestTrainingService_Update_Validation(t *testing.T) {
	svc, _ := setupTrainingService(t)
	id := uuid.New()

	_, err := svc.Update(context.Background(), id, TrainingUpdate{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	bad := models.Category("Design")
	_, err = svc.Update(context.Background(), id, TrainingUpdate{Category: &bad})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	blank := " "
	_, err = svc.Update(context.Background(), id, TrainingUpdate{Title: &blank})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestTrainingService_Delete(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM trainings WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.Delete(context.Background(), id)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingService_Delete_NotFound(t *testing.T) {
	svc, mock := setupTrainingService(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM trainings`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.Delete(context.Background(), id)

	assert.ErrorIs(t, err, ErrTrainingNotFound)
}
