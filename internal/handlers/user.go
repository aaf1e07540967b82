package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akqa/lms-api/internal/models"
	"github.com/akqa/lms-api/internal/services"
	"github.com/akqa/lms-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService UserServiceInterface
	roles       RoleInvalidator
}

func NewUserHandler(userService UserServiceInterface, roles RoleInvalidator) *UserHandler {
	return &UserHandler{userService: userService, roles: roles}
}

func (h *UserHandler) List(c *drift.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		slog.Error("list users", slog.String("error", err.Error()))
		c.InternalServerError("failed to list users")
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.NewUserResponse(&users[i]))
	}
	_ = c.JSON(http.StatusOK, resp)
}

// Assign creates the user or updates the role of an existing one, by email.
func (h *UserHandler) Assign(c *drift.Context) {
	var req dto.AssignRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Role == "" {
		c.BadRequest("email and role are required")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.BadRequest("invalid role")
		return
	}

	user, created, err := h.userService.AssignRole(c.Request.Context(), req.Email, req.Name, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNameRequired):
			c.BadRequest("name is required for new users")
		case errors.Is(err, services.ErrEmailRequired), errors.Is(err, services.ErrInvalidRole):
			c.BadRequest(err.Error())
		default:
			slog.Error("assign role", slog.String("error", err.Error()))
			c.InternalServerError("failed to assign role")
		}
		return
	}

	h.roles.Invalidate(user.ID)

	resp := dto.AssignRoleResponse{
		Message: "User role updated successfully",
		Action:  "updated",
		User:    dto.NewUserResponse(user),
	}
	if created {
		resp.Message = "User created successfully"
		resp.Action = "created"
	}
	_ = c.JSON(http.StatusOK, resp)
}

// UpdateRole changes the role of an existing user addressed by id or email.
func (h *UserHandler) UpdateRole(c *drift.Context) {
	var req dto.UpdateRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Role == "" {
		c.BadRequest("role is required")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.BadRequest("invalid role")
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), req.ID, req.Email, role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTargetRequired):
			c.BadRequest("user id or email is required")
		case errors.Is(err, services.ErrUserNotFound):
			c.NotFound("user not found")
		default:
			slog.Error("update role", slog.String("error", err.Error()))
			c.InternalServerError("failed to update role")
		}
		return
	}

	h.roles.Invalidate(user.ID)

	_ = c.JSON(http.StatusOK, dto.AssignRoleResponse{
		Message: "User role updated successfully",
		User:    dto.NewUserResponse(user),
	})
}
