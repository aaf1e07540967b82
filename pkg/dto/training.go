package dto

import (
	"time"

	"github.com/akqa/lms-api/internal/media"
	"github.com/akqa/lms-api/internal/models"
)

type CreateTrainingRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	ConductedBy  string     `json:"conducted_by"`
	DateTime     *time.Time `json:"date_time"`
	MeetingLink  string     `json:"meeting_link"`
	VideoURL     string     `json:"video_url,omitempty"`
	PPTURL       string     `json:"ppt_url,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	InstructorID string     `json:"instructor_id,omitempty"`
}

// UpdateTrainingRequest is a partial update; nil fields are left unchanged.
type UpdateTrainingRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty"`
	ConductedBy  *string    `json:"conducted_by,omitempty"`
	DateTime     *time.Time `json:"date_time,omitempty"`
	MeetingLink  *string    `json:"meeting_link,omitempty"`
	VideoURL     *string    `json:"video_url,omitempty"`
	PPTURL       *string    `json:"ppt_url,omitempty"`
	Summary      *string    `json:"summary,omitempty"`
	InstructorID *string    `json:"instructor_id,omitempty"`
}

type TrainingResponse struct {
	models.Training
	Video        *media.Info `json:"video,omitempty"`
	Presentation *media.Info `json:"presentation,omitempty"`
}

type CategoryResponse struct {
	ID   models.Category `json:"id"`
	Name string          `json:"name"`
}

func NewTrainingResponse(t *models.Training) TrainingResponse {
	resp := TrainingResponse{Training: *t}
	if t.VideoURL != nil && *t.VideoURL != "" {
		info := media.ClassifyVideo(*t.VideoURL)
		resp.Video = &info
	}
	if t.PPTURL != nil && *t.PPTURL != "" {
		info := media.ClassifyPresentation(*t.PPTURL)
		resp.Presentation = &info
	}
	return resp
}
