package server

import (
	"net/http"
	"path/filepath"
	"time"

	"ai-health-planner/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	api := e.Group("/api")
	api.Use(s.JwtAuthMiddleware)

	api.POST("/generate-meals", s.generateMealsHandler)
	api.POST("/generate-workout", s.generateWorkoutHandler)

	api.GET("/weight-log", s.listWeightHandler)
	api.POST("/weight-log", s.logWeightHandler)

	api.GET("/profile", s.getProfileHandler)
	api.PUT("/profile", s.putProfileHandler)

	api.GET("/plans/:date", s.getDayPlanHandler)
	api.POST("/workouts/:id/complete", s.completeWorkoutHandler)

	return e
}

// LoggerMiddleware tags each request with an ID and logs its outcome.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set("logger", &logger)

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		event := logger.Info()
		if status := c.Response().Status; status >= 500 {
			event = logger.Error()
		}
		event.Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Msg("request handled")
		return nil
	}
}

func requestLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok {
		return l
	}
	l := log.Logger
	return &l
}

func (s *Server) healthHandler(c echo.Context) error {
	h := metrics.GetSysHealth(c.Request().Context(), s.deps.DB, s.dataDir)
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, h)
}

func dataDir(databasePath string) string {
	return filepath.Dir(databasePath)
}
