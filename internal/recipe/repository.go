package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-health-planner/internal/shared"

	"github.com/google/uuid"
)

// ErrRecipeNotFound is returned when no recipe matches an ID.
var ErrRecipeNotFound = errors.New("recipe not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a database-backed repository for recipes.
type Repository struct {
	db DBTX
}

// NewRepository creates a new Repository.
func NewRepository(d DBTX) *Repository {
	return &Repository{db: d}
}

// WithTx returns a Repository that runs its statements inside tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// Insert stores a new recipe, assigning its ID and creation time.
func (r *Repository) Insert(ctx context.Context, rec *Recipe) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	instructions, err := json.Marshal(rec.Instructions)
	if err != nil {
		return fmt.Errorf("failed to marshal instructions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, created_by, name, description, ingredients, instructions, calories,
			protein_g, carbs_g, fat_g, prep_time_mins, estimated_cost, estimated_cost_local, currency,
			diet_type, meal_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedBy, rec.Name, rec.Description, string(ingredients), string(instructions), rec.Calories,
		rec.ProteinG, rec.CarbsG, rec.FatG, rec.PrepTimeMins, rec.EstimatedCost, rec.EstimatedCostLocal, rec.Currency,
		rec.DietType, rec.MealType, rec.CreatedAt.Format(shared.TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_by, name, description, ingredients, instructions, calories,
			protein_g, carbs_g, fat_g, prep_time_mins, estimated_cost, estimated_cost_local, currency,
			diet_type, meal_type, created_at
		FROM recipes WHERE id = ?`, id)

	var (
		rec                       Recipe
		ingredients, instructions string
		costLocal                 sql.NullFloat64
		createdAt                 string
	)
	err := row.Scan(&rec.ID, &rec.CreatedBy, &rec.Name, &rec.Description, &ingredients, &instructions, &rec.Calories,
		&rec.ProteinG, &rec.CarbsG, &rec.FatG, &rec.PrepTimeMins, &rec.EstimatedCost, &costLocal, &rec.Currency,
		&rec.DietType, &rec.MealType, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	if err := json.Unmarshal([]byte(ingredients), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients for recipe %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(instructions), &rec.Instructions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instructions for recipe %s: %w", id, err)
	}
	if costLocal.Valid {
		rec.EstimatedCostLocal = &costLocal.Float64
	}
	rec.CreatedAt, _ = shared.ParseTimestamp(createdAt)

	return &rec, nil
}
