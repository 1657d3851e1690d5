package planner

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"ai-health-planner/internal/llm"
	"ai-health-planner/internal/profile"
)

//go:embed prompts/*.md
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.md"))

type profileFacts struct {
	Age              string
	Gender           string
	Weight           string
	Height           string
	Goal             string
	HealthConditions string
}

type mealPromptData struct {
	profileFacts
	Slot          MealSlot
	Diet          profile.DietType
	Allergies     string
	Exclusions    string
	Cuisines      string
	BloodPressure string
	BloodSugar    string
	City          string
	Country       string
	CalorieBand   string
	PrepCeiling   int
	LowSodium     bool
	LowGlycemic   bool
}

type workoutPromptData struct {
	profileFacts
	Windows   string
	Wake      string
	Sleep     string
	Work      string
	Equipment string
	Emphasis  string
}

// BuildPrompt renders the role and task instructions for a request.
func BuildPrompt(req GenerationRequest, c Constraints) (llm.Prompt, error) {
	switch r := req.(type) {
	case MealRequest:
		return BuildMealPrompt(r.owner(), r.Slot, c)
	case WorkoutRequest:
		return BuildWorkoutPrompt(r.owner(), c)
	default:
		return llm.Prompt{}, fmt.Errorf("unsupported generation request %T", req)
	}
}

// BuildMealPrompt renders the prompt for one meal slot.
func BuildMealPrompt(p *profile.Profile, slot MealSlot, c Constraints) (llm.Prompt, error) {
	if !slot.Valid() {
		return llm.Prompt{}, fmt.Errorf("unknown meal slot %q", slot)
	}
	data := mealPromptData{
		profileFacts: factsOf(p),
		Slot:         slot,
		Diet:         p.Diet,
		Allergies:    joinOr(p.Allergies, "None"),
		Exclusions:   joinOr(c.Exclusions, "None"),
		Cuisines:     strings.Join(p.CuisinePreferences, ", "),
		City:         p.City,
		Country:      p.Country,
		CalorieBand:  calorieBand(p.Goal),
		PrepCeiling:  prepCeiling(slot),
		LowSodium:    c.LowSodium,
		LowGlycemic:  c.LowGlycemic,
	}
	if p.BloodPressureSystolic != nil {
		data.BloodPressure = strconv.Itoa(*p.BloodPressureSystolic)
		if p.BloodPressureDiastolic != nil {
			data.BloodPressure += "/" + strconv.Itoa(*p.BloodPressureDiastolic)
		}
	}
	if p.BloodSugar != nil {
		data.BloodSugar = formatNumber(*p.BloodSugar)
	}

	return render("meal_system.md", "meal_user.md", data)
}

// BuildWorkoutPrompt renders the prompt for the day's workout.
func BuildWorkoutPrompt(p *profile.Profile, c Constraints) (llm.Prompt, error) {
	data := workoutPromptData{
		profileFacts: factsOf(p),
		Windows:      formatWindows(c.FreeWindows),
		Wake:         p.WakeTime.String(),
		Sleep:        p.SleepTime.String(),
		Equipment:    equipmentDescription(p.Equipment),
		Emphasis:     trainingEmphasis(p.Goal),
	}
	if p.HasWorkPeriod() {
		data.Work = fmt.Sprintf("%s-%s", p.WorkStart, p.WorkEnd)
	}

	return render("workout_system.md", "workout_user.md", data)
}

func render(systemName, userName string, data any) (llm.Prompt, error) {
	var system, user bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&system, systemName, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render %s: %w", systemName, err)
	}
	if err := promptTemplates.ExecuteTemplate(&user, userName, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render %s: %w", userName, err)
	}
	return llm.Prompt{
		System: strings.TrimSpace(system.String()),
		User:   strings.TrimSpace(user.String()),
	}, nil
}

func calorieBand(goal profile.Goal) string {
	switch goal {
	case profile.GoalLose:
		return "300-500"
	case profile.GoalGain:
		return "500-800"
	default:
		return "400-600"
	}
}

func prepCeiling(slot MealSlot) int {
	if slot == Breakfast {
		return 20
	}
	return 40
}

func equipmentDescription(e profile.Equipment) string {
	switch e {
	case profile.EquipmentNone:
		return "bodyweight exercises"
	case profile.EquipmentHome:
		return "home equipment (dumbbells, resistance bands)"
	default:
		return "full gym equipment"
	}
}

func trainingEmphasis(goal profile.Goal) string {
	switch goal {
	case profile.GoalLose:
		return "cardio and interval training to maximise calorie burn"
	case profile.GoalGain:
		return "progressive-overload strength training to build muscle"
	default:
		return "a balanced mix of strength, cardio and mobility"
	}
}

func goalDescription(goal profile.Goal) string {
	switch goal {
	case profile.GoalLose:
		return "lose weight"
	case profile.GoalGain:
		return "gain weight"
	case profile.GoalMaintain:
		return "maintain weight"
	default:
		return "improve overall health"
	}
}

func factsOf(p *profile.Profile) profileFacts {
	f := profileFacts{
		Age:              "not provided",
		Gender:           p.Gender,
		Weight:           "not provided",
		Height:           "not provided",
		Goal:             goalDescription(p.Goal),
		HealthConditions: strings.Join(p.HealthConditions, ", "),
	}
	if f.Gender == "" {
		f.Gender = "not provided"
	}
	if p.Age != nil {
		f.Age = strconv.Itoa(*p.Age)
	}
	if p.WeightKg != nil {
		f.Weight = formatNumber(*p.WeightKg) + " kg"
	}
	if p.HeightCm != nil {
		f.Height = formatNumber(*p.HeightCm) + " cm"
	}
	return f
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
