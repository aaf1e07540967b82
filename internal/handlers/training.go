package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akqa/lms-api/internal/middleware"
	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/services"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TrainingHandler struct {
	trainingService TrainingServiceInterface
}

func NewTrainingHandler(trainingService TrainingServiceInterface) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

// List accepts ?category= (ignored when "all" or unknown) and ?upcoming=true.
func (h *TrainingHandler) List(c *drift.Context) {
	var filter services.TrainingFilter
	if category, ok := models.ParseCategory(c.QueryParam("category")); ok {
		filter.Category = category
	}
	filter.Upcoming = c.QueryParam("upcoming") == "true"

	trainings, err := h.trainingService.List(c.Request.Context(), filter)
	if err != nil {
		slog.Error("list trainings", slog.String("error", err.Error()))
		c.InternalServerError("failed to list trainings")
		return
	}

	resp := make([]dto.TrainingResponse, 0, len(trainings))
	for i := range trainings {
		resp = append(resp, dto.NewTrainingResponse(&trainings[i]))
	}
	_ = c.JSON(http.StatusOK, resp)
}

func (h *TrainingHandler) Get(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid training id")
		return
	}

	training, err := h.trainingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to get training")
		return
	}

	_ = c.JSON(http.StatusOK, dto.NewTrainingResponse(training))
}

func (h *TrainingHandler) Create(c *drift.Context) {
	var req dto.CreateTrainingRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	// The caller is the instructor unless one is named.
	instructorID := middleware.GetUserID(c)
	if req.InstructorID != "" {
		parsed, err := uuid.Parse(req.InstructorID)
		if err != nil {
			c.BadRequest("invalid instructor id")
			return
		}
		instructorID = parsed
	}

	in := services.NewTraining{
		Title:        req.Title,
		Description:  req.Description,
		Category:     models.Category(req.Category),
		ConductedBy:  req.ConductedBy,
		MeetingLink:  req.MeetingLink,
		VideoURL:     req.VideoURL,
		PPTURL:       req.PPTURL,
		Summary:      req.Summary,
		InstructorID: instructorID,
	}
	if req.DateTime != nil {
		in.DateTime = *req.DateTime
	}

	training, err := h.trainingService.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, "failed to create training")
		return
	}

	_ = c.JSON(http.StatusCreated, dto.NewTrainingResponse(training))
}

func (h *TrainingHandler) Update(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid training id")
		return
	}

	var req dto.UpdateTrainingRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	in := services.TrainingUpdate{
		Title:       req.Title,
		Description: req.Description,
		ConductedBy: req.ConductedBy,
		DateTime:    req.DateTime,
		MeetingLink: req.MeetingLink,
		VideoURL:    req.VideoURL,
		PPTURL:      req.PPTURL,
		Summary:     req.Summary,
	}
	if req.Category != nil {
		category := models.Category(strings.TrimSpace(*req.Category))
		in.Category = &category
	}
	if req.InstructorID != nil {
		instructorID, err := uuid.Parse(*req.InstructorID)
		if err != nil {
			c.BadRequest("invalid instructor id")
			return
		}
		in.InstructorID = &instructorID
	}

	training, err := h.trainingService.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err, "failed to update training")
		return
	}

	_ = c.JSON(http.StatusOK, dto.NewTrainingResponse(training))
}

func (h *TrainingHandler) Delete(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid training id")
		return
	}

	if err := h.trainingService.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to delete training")
		return
	}

	_ = c.JSON(http.StatusOK, map[string]string{"message": "Training deleted successfully"})
}

func (h *TrainingHandler) Categories(c *drift.Context) {
	resp := make([]dto.CategoryResponse, 0, len(models.Categories))
	for _, category := range models.Categories {
		resp = append(resp, dto.CategoryResponse{ID: category, Name: category.DisplayName()})
	}
	_ = c.JSON(http.StatusOK, resp)
}

func (h *TrainingHandler) writeError(c *drift.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTrainingNotFound):
		c.NotFound("training not found")
	case errors.Is(err, services.ErrInstructorNotFound):
		c.BadRequest("instructor not found")
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrNoFieldsToUpdate):
		c.BadRequest(err.Error())
	default:
		slog.Error(fallback, slog.String("error", err.Error()))
		c.InternalServerError(fallback)
	}
}
