package planner

import "ai-health-planner/internal/profile"

// MealSlot is one of the three daily meals.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

// MealSlots lists the slots generated for a day, in display order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner}

// Valid reports whether s is a known slot.
func (s MealSlot) Valid() bool {
	return s == Breakfast || s == Lunch || s == Dinner
}

// Shape tags the structure a generated payload must conform to.
type Shape string

const (
	ShapeRecipe  Shape = "recipe"
	ShapeWorkout Shape = "workout"
)

// GenerationRequest is either a MealRequest or a WorkoutRequest.
type GenerationRequest interface {
	Shape() Shape
	owner() *profile.Profile
}

// MealRequest asks for a single recipe for one slot.
type MealRequest struct {
	Slot    MealSlot
	Profile *profile.Profile
}

func (MealRequest) Shape() Shape { return ShapeRecipe }
func (r MealRequest) owner() *profile.Profile { return r.Profile }

// WorkoutRequest asks for a single-day workout.
type WorkoutRequest struct {
	Profile *profile.Profile
}

func (WorkoutRequest) Shape() Shape { return ShapeWorkout }
func (r WorkoutRequest) owner() *profile.Profile { return r.Profile }
