package server

import (
	"errors"
	"net/http"

	"ai-health-planner/internal/llm"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/weightlog"

	"github.com/labstack/echo/v4"
)

// statusFor maps pipeline failures onto HTTP statuses.
func statusFor(err error) int {
	var (
		upstream    *llm.UpstreamError
		violation   *planner.SchemaViolation
		persistence *planner.PersistenceError
	)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound), errors.Is(err, planner.ErrWorkoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, weightlog.ErrInvalidWeight), errors.Is(err, weightlog.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream), errors.Is(err, llm.ErrMalformedEnvelope), errors.As(err, &violation):
		return http.StatusBadGateway
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text for err.
func messageFor(err error) string {
	if errors.Is(err, profile.ErrProfileNotFound) {
		return "Profile not found"
	}
	return err.Error()
}

// errorResponse writes {"error": msg} with the mapped status.
func errorResponse(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error().Err(err).Int("status", status).Msg("request failed")
	}
	return c.JSON(status, map[string]string{"error": messageFor(err)})
}
