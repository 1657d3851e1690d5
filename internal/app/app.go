// Package app wires configuration, storage and the generation backend into
// the services the binaries run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/database"
	"ai-health-planner/internal/llm"
	"ai-health-planner/internal/metrics"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/server"
	"ai-health-planner/internal/telegram"
	"ai-health-planner/internal/weightlog"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App holds the application's dependencies.
type App struct {
	cfg     *config.Config
	db      *database.DB
	textGen llm.TextGenerator

	profiles *profile.Repository
	plans    *planner.PlanRepository
	weights  *weightlog.Repository
	metrics  *metrics.Store
	planner  *planner.Planner
}

// New opens the database and builds the configured generation backend.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	textGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}

	log.Info().Str("provider", cfg.LLMProvider).Str("model", cfg.LLMModel).
		Str("batch_mode", cfg.MealBatchMode).Str("database", cfg.DatabasePath).Msg("application initialized")
	return newApp(cfg, db, textGen), nil
}

func newApp(cfg *config.Config, db *database.DB, textGen llm.TextGenerator) *App {
	a := &App{
		cfg:      cfg,
		db:       db,
		textGen:  textGen,
		profiles: profile.NewRepository(db.SQL),
		plans:    planner.NewPlanRepository(db.SQL),
		weights:  weightlog.NewRepository(db.SQL),
		metrics:  metrics.NewStore(db.SQL),
	}
	a.planner = planner.NewPlanner(a.profiles, textGen, a.plans, a.metrics, planner.BatchMode(cfg.MealBatchMode))
	return a
}

// Close releases the generation backend and the database.
func (a *App) Close() error {
	if c, ok := a.textGen.(llm.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close generation client")
		}
	}
	return a.db.Close()
}

// ServerDependencies returns the collaborators of the HTTP API.
func (a *App) ServerDependencies() server.Dependencies {
	return server.Dependencies{
		Planner:  a.planner,
		Profiles: a.profiles,
		Plans:    a.plans,
		Weights:  a.weights,
		DB:       a.db.SQL,
	}
}

// BotDependencies returns the collaborators of the Telegram bot.
func (a *App) BotDependencies() telegram.Dependencies {
	return telegram.Dependencies{
		Planner: a.planner,
		Plans:   a.plans,
		Weights: a.weights,
		Usage:   a.metrics,
		DB:      a.db.SQL,
	}
}

// GenerateMeals generates today's meals for userID and prints them.
func (a *App) GenerateMeals(ctx context.Context, userID string, out io.Writer) error {
	fmt.Fprintf(out, "Generating meals for %q...\n", userID)

	batch, err := a.planner.GenerateMeals(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to generate meals: %w", err)
	}

	fmt.Fprintf(out, "\n=== MEALS FOR %s ===\n", batch.Date)
	for _, m := range batch.Meals {
		if m.Recipe == nil {
			continue
		}
		fmt.Fprintf(out, "%-10s: %s (%d kcal, %d mins, %s)\n", m.MealType, m.Recipe.Name, m.Recipe.Calories, m.Recipe.PrepTimeMins, m.Recipe.EstimatedCost)
	}
	for _, f := range batch.Failures {
		fmt.Fprintf(out, "%-10s: FAILED: %s\n", f.Slot, f.Error)
	}
	return nil
}

// GenerateWorkout generates today's workout for userID and prints it.
func (a *App) GenerateWorkout(ctx context.Context, userID string, out io.Writer) error {
	fmt.Fprintf(out, "Generating workout for %q...\n", userID)

	w, err := a.planner.GenerateWorkout(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to generate workout: %w", err)
	}

	fmt.Fprintf(out, "\n=== WORKOUT FOR %s ===\n", w.Date)
	fmt.Fprintf(out, "%s (%d mins, %s)\n%s\n\n", w.Name, w.DurationMins, w.Difficulty, w.Notes)
	for _, s := range w.Warmup {
		fmt.Fprintf(out, "  warm-up   %s (%s)\n", s.Exercise, s.Duration)
	}
	for _, e := range w.Exercises {
		fmt.Fprintf(out, "  exercise  %s: %d x %s, rest %s\n", e.Name, e.Sets, e.Reps, e.Rest)
	}
	for _, s := range w.Cooldown {
		fmt.Fprintf(out, "  cool-down %s (%s)\n", s.Exercise, s.Duration)
	}
	return nil
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int, out io.Writer) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive, got %d", days)
	}
	affected, err := a.metrics.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(out, "Successfully removed %d old metric records.\n", affected)
	return nil
}

// SetupLogging configures the global zerolog logger. Unknown levels fall back
// to info; format "console" switches to human-readable output.
func SetupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
