package recipe

import (
	"strconv"
	"strings"
	"time"
)

// Ingredient is one line of a recipe's shopping list.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Cost   string `json:"cost"`
}

// Recipe is a generated recipe persisted for a user.
type Recipe struct {
	ID                 string       `json:"id"`
	CreatedBy          string       `json:"created_by"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	Ingredients        []Ingredient `json:"ingredients"`
	Instructions       []string     `json:"instructions"`
	Calories           int          `json:"calories"`
	ProteinG           float64      `json:"protein_g"`
	CarbsG             float64      `json:"carbs_g"`
	FatG               float64      `json:"fat_g"`
	PrepTimeMins       int          `json:"prep_time_mins"`
	EstimatedCost      string       `json:"estimated_cost"`
	EstimatedCostLocal *float64     `json:"estimated_cost_local"`
	Currency           string       `json:"currency"`
	DietType           string       `json:"diet_type"`
	MealType           string       `json:"meal_type"`
	CreatedAt          time.Time    `json:"created_at"`
}

// ParseCost extracts the numeric part of a free-form cost string such as
// "KES 1,250.50". Everything but digits and dots is dropped and a second
// decimal point ends the number. Returns nil when nothing numeric remains.
func ParseCost(s string) *float64 {
	var b strings.Builder
	seenDot := false
loop:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if seenDot {
				break loop
			}
			seenDot = true
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(b.String(), "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
