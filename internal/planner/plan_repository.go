package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/recipe"
	"ai-health-planner/internal/shared"
)

var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrAlreadyCompleted = errors.New("workout already completed")
)

// MealPlanEntry links a recipe into a user's day for one slot.
type MealPlanEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Date      string         `json:"date"`
	MealType  MealSlot       `json:"meal_type"`
	RecipeID  string         `json:"recipe_id"`
	Completed bool           `json:"completed"`
	Recipe    *recipe.Recipe `json:"recipe,omitempty"`
}

// WorkoutPlan is the persisted workout for a user's day.
type WorkoutPlan struct {
	ID              int64       `json:"id"`
	UserID          string      `json:"user_id"`
	Date            string      `json:"date"`
	Name            string      `json:"name"`
	Exercises       []Exercise  `json:"exercises"`
	DurationMins    int         `json:"duration_mins"`
	EquipmentNeeded string      `json:"equipment_needed"`
	Difficulty      Difficulty  `json:"difficulty"`
	Warmup          []TimedStep `json:"warmup"`
	Cooldown        []TimedStep `json:"cooldown"`
	Description     string      `json:"description"`
	BestTime        string      `json:"best_time"`
	Notes           string      `json:"notes"`
	Completed       bool        `json:"completed"`
	CompletedAt     *time.Time  `json:"completed_at"`
}

// DayPlan is everything planned for a user on one date.
type DayPlan struct {
	Date    string          `json:"date"`
	Meals   []MealPlanEntry `json:"meals"`
	Workout *WorkoutPlan    `json:"workout"`
}

// PlanRepository persists meal plan entries and workout plans.
type PlanRepository struct {
	db      *sql.DB
	recipes *recipe.Repository
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		db:      d,
		recipes: recipe.NewRepository(d),
	}
}

// SaveRecipeAndLink stores a new recipe and points the (owner, date, slot)
// entry at it in one transaction, replacing any earlier link.
func (r *PlanRepository) SaveRecipeAndLink(ctx context.Context, owner, date string, slot MealSlot, diet profile.DietType, g *GeneratedRecipe) (*MealPlanEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &PersistenceError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	rec := &recipe.Recipe{
		CreatedBy:          owner,
		Name:               g.Name,
		Description:        g.Description,
		Ingredients:        g.Ingredients,
		Instructions:       g.Instructions,
		Calories:           g.Calories,
		ProteinG:           g.ProteinG,
		CarbsG:             g.CarbsG,
		FatG:               g.FatG,
		PrepTimeMins:       g.PrepTimeMins,
		EstimatedCost:      g.EstimatedCost,
		EstimatedCostLocal: recipe.ParseCost(g.EstimatedCost),
		Currency:           g.Currency,
		DietType:           string(diet),
		MealType:           string(slot),
	}
	if err := r.recipes.WithTx(tx).Insert(ctx, rec); err != nil {
		return nil, &PersistenceError{Op: "save recipe", Err: err}
	}

	entry := &MealPlanEntry{UserID: owner, Date: date, MealType: slot, RecipeID: rec.ID, Recipe: rec}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO meal_plans (user_id, date, meal_type, recipe_id, completed, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(user_id, date, meal_type) DO UPDATE SET
			recipe_id = excluded.recipe_id,
			completed = 0
		RETURNING id`,
		owner, date, string(slot), rec.ID, time.Now().UTC().Format(shared.TimestampLayout),
	).Scan(&entry.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "link meal plan entry", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit meal plan entry", Err: err}
	}
	return entry, nil
}

// SaveWorkout upserts the (owner, date) workout. Regeneration clears any
// earlier completion.
func (r *PlanRepository) SaveWorkout(ctx context.Context, owner, date string, w *GeneratedWorkout, equipment profile.Equipment) (*WorkoutPlan, error) {
	plan := &WorkoutPlan{
		UserID:          owner,
		Date:            date,
		Name:            w.Name,
		Exercises:       w.Exercises,
		DurationMins:    w.DurationMins,
		EquipmentNeeded: string(equipment),
		Difficulty:      w.Difficulty,
		Warmup:          w.Warmup,
		Cooldown:        w.Cooldown,
		Description:     w.Description,
		BestTime:        w.BestTime,
		Notes:           fmt.Sprintf("Best time: %s. %s", w.BestTime, w.Description),
	}

	exercises, warmup, cooldown, err := marshalWorkoutLists(plan)
	if err != nil {
		return nil, &PersistenceError{Op: "encode workout", Err: err}
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO workout_plans (user_id, date, name, exercises, duration_mins, equipment_needed,
			difficulty, warmup, cooldown, description, best_time, notes, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			name = excluded.name,
			exercises = excluded.exercises,
			duration_mins = excluded.duration_mins,
			equipment_needed = excluded.equipment_needed,
			difficulty = excluded.difficulty,
			warmup = excluded.warmup,
			cooldown = excluded.cooldown,
			description = excluded.description,
			best_time = excluded.best_time,
			notes = excluded.notes,
			completed = 0,
			completed_at = NULL
		RETURNING id`,
		owner, date, plan.Name, exercises, plan.DurationMins, plan.EquipmentNeeded,
		string(plan.Difficulty), warmup, cooldown, plan.Description, plan.BestTime, plan.Notes, time.Now().UTC().Format(shared.TimestampLayout),
	).Scan(&plan.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "save workout", Err: err}
	}
	return plan, nil
}

// CompleteWorkout marks a workout done. It succeeds once per generation.
func (r *PlanRepository) CompleteWorkout(ctx context.Context, owner string, id int64, now time.Time) (*WorkoutPlan, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workout_plans SET completed = 1, completed_at = ?
		WHERE id = ? AND user_id = ? AND completed = 0`,
		now.UTC().Format(shared.TimestampLayout), id, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "complete workout", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, &PersistenceError{Op: "complete workout", Err: err}
	}

	plan, err := r.getWorkout(ctx, `WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return plan, ErrAlreadyCompleted
	}
	return plan, nil
}

// GetWorkout returns the workout planned for owner on date.
func (r *PlanRepository) GetWorkout(ctx context.Context, owner, date string) (*WorkoutPlan, error) {
	return r.getWorkout(ctx, `WHERE user_id = ? AND date = ?`, owner, date)
}

// GetDayPlan loads the meals, with their recipes, and the workout for a date.
func (r *PlanRepository) GetDayPlan(ctx context.Context, owner, date string) (*DayPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, meal_type, recipe_id, completed
		FROM meal_plans
		WHERE user_id = ? AND date = ?
		ORDER BY CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 ELSE 2 END`,
		owner, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plan entries: %w", err)
	}

	day := &DayPlan{Date: date, Meals: []MealPlanEntry{}}
	for rows.Next() {
		var e MealPlanEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.MealType, &e.RecipeID, &e.Completed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan meal plan entry: %w", err)
		}
		day.Meals = append(day.Meals, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list meal plan entries: %w", err)
	}

	// Rows must be closed first: the pool holds a single connection.
	for i := range day.Meals {
		rec, err := r.recipes.Get(ctx, day.Meals[i].RecipeID)
		if err != nil {
			return nil, err
		}
		day.Meals[i].Recipe = rec
	}

	day.Workout, err = r.GetWorkout(ctx, owner, date)
	if err != nil && !errors.Is(err, ErrWorkoutNotFound) {
		return nil, err
	}
	return day, nil
}

func (r *PlanRepository) getWorkout(ctx context.Context, where string, args ...any) (*WorkoutPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, name, exercises, duration_mins, equipment_needed, difficulty,
			warmup, cooldown, description, best_time, notes, completed, completed_at
		FROM workout_plans `+where, args...)

	var (
		p                           WorkoutPlan
		exercises, warmup, cooldown string
		completedAt                 sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Date, &p.Name, &exercises, &p.DurationMins, &p.EquipmentNeeded,
		&p.Difficulty, &warmup, &cooldown, &p.Description, &p.BestTime, &p.Notes, &p.Completed, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}

	for _, f := range []struct {
		raw string
		dst any
	}{{exercises, &p.Exercises}, {warmup, &p.Warmup}, {cooldown, &p.Cooldown}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode workout %d: %w", p.ID, err)
		}
	}
	if completedAt.Valid {
		if t, ok := shared.ParseTimestamp(completedAt.String); ok {
			p.CompletedAt = &t
		}
	}
	return &p, nil
}

func marshalWorkoutLists(p *WorkoutPlan) (string, string, string, error) {
	exercises, err := json.Marshal(p.Exercises)
	if err != nil {
		return "", "", "", err
	}
	warmup, err := json.Marshal(p.Warmup)
	if err != nil {
		return "", "", "", err
	}
	cooldown, err := json.Marshal(p.Cooldown)
	if err != nil {
		return "", "", "", err
	}
	return string(exercises), string(warmup), string(cooldown), nil
}
