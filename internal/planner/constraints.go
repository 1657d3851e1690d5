package planner

import (
	"fmt"
	"strings"

	"ai-health-planner/internal/profile"
)

const (
	lowSodiumSystolicThreshold = 130
	lowGlycemicSugarThreshold  = 100
)

// FreeWindow is a stretch of the day outside sleep and work hours.
type FreeWindow struct {
	Start profile.ClockTime
	End   profile.ClockTime
}

// Minutes is the window length; zero or negative for degenerate schedules.
func (w FreeWindow) Minutes() int {
	return int(w.End) - int(w.Start)
}

// Contains reports whether t falls inside the window, bounds included.
func (w FreeWindow) Contains(t profile.ClockTime) bool {
	return t >= w.Start && t <= w.End
}

func (w FreeWindow) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// Constraints are the facts derived from a profile before prompting.
type Constraints struct {
	LowSodium   bool
	LowGlycemic bool
	Exclusions  []string
	FreeWindows []FreeWindow
}

// EncodeConstraints derives health flags, exclusions and free windows.
// It never rejects a profile: windows with non-positive length are kept.
func EncodeConstraints(p *profile.Profile) Constraints {
	c := Constraints{
		LowSodium:   p.BloodPressureSystolic != nil && *p.BloodPressureSystolic > lowSodiumSystolicThreshold,
		LowGlycemic: p.BloodSugar != nil && *p.BloodSugar > lowGlycemicSugarThreshold,
		Exclusions:  exclusions(p),
	}

	if p.HasWorkPeriod() {
		c.FreeWindows = []FreeWindow{
			{Start: p.WakeTime, End: *p.WorkStart},
			{Start: *p.WorkEnd, End: p.SleepTime},
		}
	} else {
		c.FreeWindows = []FreeWindow{{Start: p.WakeTime, End: p.SleepTime}}
	}
	return c
}

var dietExclusions = map[profile.DietType][]string{
	profile.DietVegetarian: {"meat", "poultry", "fish", "seafood"},
	profile.DietVegan:      {"meat", "poultry", "fish", "seafood", "dairy", "eggs", "honey"},
}

func exclusions(p *profile.Profile) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(items []string) {
		for _, item := range items {
			key := strings.ToLower(strings.TrimSpace(item))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(item))
		}
	}
	add(p.Allergies)
	add(dietExclusions[p.Diet])
	return out
}

func formatWindows(windows []FreeWindow) string {
	parts := make([]string, len(windows))
	for i, w := range windows {
		parts[i] = w.String()
	}
	return strings.Join(parts, ", ")
}
