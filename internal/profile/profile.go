package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProfileNotFound is returned when no profile exists for a user.
var ErrProfileNotFound = errors.New("profile not found")

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalGain     Goal = "gain"
	GoalMaintain Goal = "maintain"
	GoalHealth   Goal = "health"
)

type DietType string

const (
	DietRegular    DietType = "regular"
	DietVegetarian DietType = "vegetarian"
	DietVegan      DietType = "vegan"
)

type Equipment string

const (
	EquipmentNone Equipment = "none"
	EquipmentHome Equipment = "home"
	EquipmentGym  Equipment = "gym"
)

// Profile is the health and lifestyle record plans are generated from.
type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	Age      *int     `json:"age,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	HeightCm *float64 `json:"height_cm,omitempty"`

	BloodPressureSystolic  *int     `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic,omitempty"`
	BloodSugar             *float64 `json:"blood_sugar,omitempty"`
	HealthConditions       []string `json:"health_conditions"`

	GoalWeightKg       *float64  `json:"goal_weight_kg,omitempty"`
	Goal               Goal      `json:"goal_type"`
	Diet               DietType  `json:"diet_type"`
	Allergies          []string  `json:"allergies"`
	CuisinePreferences []string  `json:"cuisine_preferences"`
	Equipment          Equipment `json:"equipment"`

	WakeTime  ClockTime  `json:"wake_time"`
	SleepTime ClockTime  `json:"sleep_time"`
	WorkStart *ClockTime `json:"work_start,omitempty"`
	WorkEnd   *ClockTime `json:"work_end,omitempty"`

	Country string `json:"country"`
	City    string `json:"city"`
}

// HasWorkPeriod reports whether both ends of the work period are set.
func (p *Profile) HasWorkPeriod() bool {
	return p.WorkStart != nil && p.WorkEnd != nil
}

// Validate checks enumerations and the fields generation depends on.
func (p *Profile) Validate() error {
	var problems []string
	switch p.Goal {
	case GoalLose, GoalGain, GoalMaintain, GoalHealth:
	default:
		problems = append(problems, fmt.Sprintf("goal_type %q must be one of lose, gain, maintain, health", p.Goal))
	}
	switch p.Diet {
	case DietRegular, DietVegetarian, DietVegan:
	default:
		problems = append(problems, fmt.Sprintf("diet_type %q must be one of regular, vegetarian, vegan", p.Diet))
	}
	switch p.Equipment {
	case EquipmentNone, EquipmentHome, EquipmentGym:
	default:
		problems = append(problems, fmt.Sprintf("equipment %q must be one of none, home, gym", p.Equipment))
	}
	if (p.WorkStart == nil) != (p.WorkEnd == nil) {
		problems = append(problems, "work_start and work_end must be set together")
	}
	if strings.TrimSpace(p.City) == "" || strings.TrimSpace(p.Country) == "" {
		problems = append(problems, "city and country are required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid profile: %s", strings.Join(problems, "; "))
	}
	return nil
}
