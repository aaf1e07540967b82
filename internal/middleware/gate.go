package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/akqa/lms-api/internal/gate"
	"github.com/akqa/lms-api/internal/metrics"
	"github.com/akqa/lms-api/internal/models"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type RoleResolver interface {
	CurrentRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// Authorize enforces the gate table on API requests. Requests that change
// data are checked against the user's current stored role rather than the
// role captured in the session.
func Authorize(table *gate.Table, roles RoleResolver, recorder metrics.Recorder) drift.HandlerFunc {
	return func(c *drift.Context) {
		session := GetSessionUser(c)
		method := c.Request.Method
		path := c.Request.URL.Path

		if session != nil && roles != nil && isMutating(method) {
			role, err := roles.CurrentRole(c.Request.Context(), session.ID)
			if err != nil {
				slog.Warn("role revalidation failed",
					slog.String("user_id", session.ID.String()),
					slog.String("error", err.Error()),
				)
				recorder.RecordGateDecision(gate.RedirectToSignIn.String())
				c.Unauthorized("session is no longer valid")
				return
			}
			current := *session
			current.Role = role
			session = &current
		}

		decision := table.Evaluate(session, method, path)
		recorder.RecordGateDecision(decision.String())

		switch decision {
		case gate.RedirectToSignIn:
			c.Unauthorized("authentication required")
			return
		case gate.RedirectToUnauthorized:
			c.Forbidden("insufficient role")
			return
		}

		c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
