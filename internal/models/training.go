package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryFrontend Category = "FE"
	CategoryBackend  Category = "BE"
	CategoryQA       Category = "QA"
	CategoryGeneral  Category = "General"
)

// Categories is the display order used by the catalogue.
var Categories = []Category{CategoryFrontend, CategoryBackend, CategoryQA, CategoryGeneral}

var categoryNames = map[Category]string{
	CategoryFrontend: "Frontend",
	CategoryBackend:  "Backend",
	CategoryQA:       "QA",
	CategoryGeneral:  "General",
}

func (c Category) DisplayName() string {
	return categoryNames[c]
}

// ParseCategory matches s against the known categories ignoring case.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

type Instructor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Training struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     Category   `json:"category"`
	ConductedBy  string     `json:"conducted_by"`
	DateTime     time.Time  `json:"date_time"`
	MeetingLink  string     `json:"meeting_link"`
	VideoURL     *string    `json:"video_url,omitempty"`
	PPTURL       *string    `json:"ppt_url,omitempty"`
	Summary      *string    `json:"summary,omitempty"`
	InstructorID uuid.UUID  `json:"instructor_id"`
	Instructor   Instructor `json:"instructor"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
