// Package server exposes the plan pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/metrics"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/weightlog"
)

// Planner generates and stores today's plans for a user.
type Planner interface {
	GenerateMeals(ctx context.Context, userID string) (*planner.MealBatch, error)
	GenerateWorkout(ctx context.Context, userID string) (*planner.WorkoutPlan, error)
}

// ProfileStore reads and writes user profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Upsert(ctx context.Context, p *profile.Profile) error
}

// PlanStore reads day plans and records workout completion.
type PlanStore interface {
	GetDayPlan(ctx context.Context, owner, date string) (*planner.DayPlan, error)
	CompleteWorkout(ctx context.Context, owner string, id int64, now time.Time) (*planner.WorkoutPlan, error)
}

// WeightStore persists weigh-ins.
type WeightStore interface {
	Upsert(ctx context.Context, e *weightlog.Entry) error
	ListRecent(ctx context.Context, userID string, limit int) ([]weightlog.Entry, error)
}

// Dependencies are the collaborators the HTTP layer delegates to.
type Dependencies struct {
	Planner  Planner
	Profiles ProfileStore
	Plans    PlanStore
	Weights  WeightStore
	DB       metrics.Pinger
}

// Server holds the handlers' dependencies.
type Server struct {
	deps      Dependencies
	jwtSecret []byte
	dataDir   string
	now       func() time.Time
}

// New creates a Server. cfg.JWTSecret must be set for the API to accept requests.
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		deps:      deps,
		jwtSecret: []byte(cfg.JWTSecret),
		dataDir:   dataDir(cfg.DatabasePath),
		now:       time.Now,
	}
}

// NewHTTPServer wires the router into an http.Server with timeouts sized for
// the generation budget.
func NewHTTPServer(cfg *config.Config, deps Dependencies) *http.Server {
	s := New(cfg, deps)
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
	}
}
