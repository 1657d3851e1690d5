package planner

import (
	"context"
	"time"

	"ai-health-planner/internal/llm"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/shared"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchMode controls what happens to sibling meals when one slot fails.
type BatchMode string

const (
	// BatchAtomic persists all three meals or none of them.
	BatchAtomic BatchMode = "atomic"
	// BatchPartial persists every slot that succeeds and reports the rest.
	BatchPartial BatchMode = "partial"
)

// ProfileSource resolves a user's profile.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// PlanStore persists validated results.
type PlanStore interface {
	SaveRecipeAndLink(ctx context.Context, owner, date string, slot MealSlot, diet profile.DietType, r *GeneratedRecipe) (*MealPlanEntry, error)
	SaveWorkout(ctx context.Context, owner, date string, w *GeneratedWorkout, equipment profile.Equipment) (*WorkoutPlan, error)
}

// MetricsRecorder stores per-call execution metadata.
type MetricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Planner generates and stores a user's daily meals and workout.
type Planner struct {
	profiles  ProfileSource
	textGen   llm.TextGenerator
	store     PlanStore
	metrics   MetricsRecorder
	batchMode BatchMode
	now       func() time.Time
}

// NewPlanner creates a new Planner instance. recorder may be nil.
func NewPlanner(profiles ProfileSource, textGen llm.TextGenerator, store PlanStore, recorder MetricsRecorder, mode BatchMode) *Planner {
	if mode != BatchPartial {
		mode = BatchAtomic
	}
	return &Planner{
		profiles:  profiles,
		textGen:   textGen,
		store:     store,
		metrics:   recorder,
		batchMode: mode,
		now:       time.Now,
	}
}

// SlotFailure is a meal slot that could not be generated or stored.
type SlotFailure struct {
	Slot  MealSlot `json:"meal_type"`
	Error string   `json:"error"`
}

// MealBatch is the outcome of one generate-meals action.
type MealBatch struct {
	Date     string          `json:"date"`
	Meals    []MealPlanEntry `json:"meals"`
	Failures []SlotFailure   `json:"failures,omitempty"`
}

// GenerateMeals generates breakfast, lunch and dinner for today in parallel.
// In atomic mode any failure aborts the batch before anything is stored.
func (p *Planner) GenerateMeals(ctx context.Context, userID string) (*MealBatch, error) {
	prof, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	date := shared.Today(p.now())
	c := EncodeConstraints(prof)

	var batch *MealBatch
	if p.batchMode == BatchPartial {
		batch, err = p.generateMealsPartial(ctx, prof, date, c)
	} else {
		batch, err = p.generateMealsAtomic(ctx, prof, date, c)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("meal generation failed")
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("date", date).Int("meals", len(batch.Meals)).
		Int("failures", len(batch.Failures)).Msg("meal plan generated")
	return batch, nil
}

func (p *Planner) generateMealsAtomic(ctx context.Context, prof *profile.Profile, date string, c Constraints) (*MealBatch, error) {
	recipes := make([]*GeneratedRecipe, len(MealSlots))

	// No errgroup context: a failing slot must not cancel its siblings.
	var g errgroup.Group
	for i, slot := range MealSlots {
		g.Go(func() error {
			r, err := p.runMealGenerator(ctx, prof, slot, c)
			recipes[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &MealBatch{Date: date}
	for i, slot := range MealSlots {
		entry, err := p.store.SaveRecipeAndLink(ctx, prof.UserID, date, slot, prof.Diet, recipes[i])
		if err != nil {
			return nil, err
		}
		batch.Meals = append(batch.Meals, *entry)
	}
	return batch, nil
}

func (p *Planner) generateMealsPartial(ctx context.Context, prof *profile.Profile, date string, c Constraints) (*MealBatch, error) {
	entries := make([]*MealPlanEntry, len(MealSlots))
	errs := make([]error, len(MealSlots))

	var g errgroup.Group
	for i, slot := range MealSlots {
		g.Go(func() error {
			r, err := p.runMealGenerator(ctx, prof, slot, c)
			if err == nil {
				entries[i], err = p.store.SaveRecipeAndLink(ctx, prof.UserID, date, slot, prof.Diet, r)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	batch := &MealBatch{Date: date}
	var firstErr error
	for i, slot := range MealSlots {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			batch.Failures = append(batch.Failures, SlotFailure{Slot: slot, Error: errs[i].Error()})
			continue
		}
		batch.Meals = append(batch.Meals, *entries[i])
	}
	if len(batch.Meals) == 0 {
		return nil, firstErr
	}
	return batch, nil
}

// GenerateWorkout generates and upserts today's workout.
func (p *Planner) GenerateWorkout(ctx context.Context, userID string) (*WorkoutPlan, error) {
	prof, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	date := shared.Today(p.now())

	w, err := p.runWorkoutGenerator(ctx, prof, EncodeConstraints(prof))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("workout generation failed")
		return nil, err
	}

	plan, err := p.store.SaveWorkout(ctx, prof.UserID, date, w, prof.Equipment)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("failed to save workout")
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("date", date).Int64("workout_id", plan.ID).Msg("workout plan generated")
	return plan, nil
}
