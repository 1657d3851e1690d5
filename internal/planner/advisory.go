package planner

import (
	"fmt"
	"strconv"
	"strings"

	"ai-health-planner/internal/profile"
)

// recipeAdvisories lists prompt constraints the model appears to have
// ignored. They are reported, never enforced.
func recipeAdvisories(r *GeneratedRecipe, p *profile.Profile, slot MealSlot, c Constraints) []string {
	var notes []string

	lo, hi := bandLimits(calorieBand(p.Goal))
	if r.Calories < lo || r.Calories > hi {
		notes = append(notes, fmt.Sprintf("calories %d outside requested band %d-%d", r.Calories, lo, hi))
	}
	if ceiling := prepCeiling(slot); r.PrepTimeMins > ceiling {
		notes = append(notes, fmt.Sprintf("prep time %d min exceeds %d min ceiling", r.PrepTimeMins, ceiling))
	}
	for _, ing := range r.Ingredients {
		name := strings.ToLower(ing.Name)
		for _, excluded := range c.Exclusions {
			if strings.Contains(name, strings.ToLower(excluded)) {
				notes = append(notes, fmt.Sprintf("ingredient %q matches exclusion %q", ing.Name, excluded))
			}
		}
	}
	return notes
}

// workoutAdvisories checks duration and scheduling against the free windows.
func workoutAdvisories(w *GeneratedWorkout, c Constraints) []string {
	var notes []string

	if w.DurationMins < 30 || w.DurationMins > 45 {
		notes = append(notes, fmt.Sprintf("duration %d min outside 30-45 min", w.DurationMins))
	}

	t, err := profile.ParseClockTime(w.BestTime)
	if err != nil {
		notes = append(notes, fmt.Sprintf("best_time %q is not a HH:MM clock time", w.BestTime))
		return notes
	}
	for _, window := range c.FreeWindows {
		if window.Contains(t) {
			return notes
		}
	}
	return append(notes, fmt.Sprintf("best_time %s is outside free windows %s", t, formatWindows(c.FreeWindows)))
}

func bandLimits(band string) (int, int) {
	lo, hi, _ := strings.Cut(band, "-")
	l, _ := strconv.Atoi(lo)
	h, _ := strconv.Atoi(hi)
	return l, h
}
