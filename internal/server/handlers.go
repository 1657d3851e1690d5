package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/shared"
	"ai-health-planner/internal/shopping"
	"ai-health-planner/internal/weightlog"

	"github.com/labstack/echo/v4"
)

type generateRequest struct {
	UserID string `json:"userId"`
}

type weightRequest struct {
	WeightKg float64 `json:"weight_kg"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

// generationTarget resolves whose plan is generated. A body userId must match the caller.
func generationTarget(c echo.Context) (string, error) {
	caller, err := GetUserIDFromContext(c)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var req generateRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return caller, nil
	}
	if req.UserID != caller {
		return "", echo.NewHTTPError(http.StatusForbidden, "userId does not match the authenticated user")
	}
	return req.UserID, nil
}

func httpError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(he.Code, map[string]string{"error": fmt.Sprint(he.Message)})
	}
	return errorResponse(c, err)
}

// generationContext ignores client disconnects; only the generation timeout
// cancels a running batch.
func generationContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func (s *Server) generateMealsHandler(c echo.Context) error {
	userID, err := generationTarget(c)
	if err != nil {
		return httpError(c, err)
	}

	batch, err := s.deps.Planner.GenerateMeals(generationContext(c), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	resp := map[string]any{"meals": batch.Meals}
	if len(batch.Failures) > 0 {
		resp["failures"] = batch.Failures
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) generateWorkoutHandler(c echo.Context) error {
	userID, err := generationTarget(c)
	if err != nil {
		return httpError(c, err)
	}

	workout, err := s.deps.Planner.GenerateWorkout(generationContext(c), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"workout": workout})
}

func (s *Server) listWeightHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	entries, err := s.deps.Weights.ListRecent(c.Request().Context(), userID, weightlog.HistoryLimit)
	if err != nil {
		return errorResponse(c, err)
	}
	if entries == nil {
		entries = []weightlog.Entry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) logWeightHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	var req weightRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	entry, err := weightlog.NewEntry(userID, req.WeightKg, req.Date, req.Notes, s.now())
	if err != nil {
		return errorResponse(c, err)
	}
	if err := s.deps.Weights.Upsert(c.Request().Context(), entry); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) getProfileHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	p, err := s.deps.Profiles.Get(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) putProfileHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	var p profile.Profile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.deps.Profiles.Upsert(c.Request().Context(), &p); err != nil {
		return errorResponse(c, err)
	}
	requestLogger(c).Info().Str("user_id", userID).Msg("profile updated")
	return c.JSON(http.StatusOK, map[string]any{"profile": &p})
}

func (s *Server) getDayPlanHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	date := c.Param("date")
	if date == "today" {
		date = shared.Today(s.now())
	}
	if !shared.ValidDate(date) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "date must be formatted as YYYY-MM-DD"})
	}

	plan, err := s.deps.Plans.GetDayPlan(c.Request().Context(), userID, date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"plan": plan, "shopping_list": shopping.Build(plan)})
}

func (s *Server) completeWorkoutHandler(c echo.Context) error {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid workout ID"})
	}

	workout, err := s.deps.Plans.CompleteWorkout(c.Request().Context(), userID, id, s.now())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"workout": workout})
}
