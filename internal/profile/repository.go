package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-health-planner/internal/shared"
)

// Repository is a database-backed store of user profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const profileColumns = `user_id, name, age, gender, weight_kg, height_cm,
	blood_pressure_systolic, blood_pressure_diastolic, blood_sugar, health_conditions,
	goal_weight_kg, goal_type, diet_type, allergies, cuisine_preferences, equipment,
	wake_time, sleep_time, work_start, work_end, country, city`

// Get loads the profile for userID, or ErrProfileNotFound.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)

	var (
		p                                  Profile
		age, systolic, diastolic           sql.NullInt64
		weight, height, sugar, goalWeight  sql.NullFloat64
		gender, workStart, workEnd         sql.NullString
		conditions, allergies, preferences string
	)
	err := row.Scan(&p.UserID, &p.Name, &age, &gender, &weight, &height,
		&systolic, &diastolic, &sugar, &conditions,
		&goalWeight, &p.Goal, &p.Diet, &allergies, &preferences, &p.Equipment,
		&p.WakeTime, &p.SleepTime, &workStart, &workEnd, &p.Country, &p.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	p.Age = intPtr(age)
	p.BloodPressureSystolic = intPtr(systolic)
	p.BloodPressureDiastolic = intPtr(diastolic)
	p.WeightKg = floatPtr(weight)
	p.HeightCm = floatPtr(height)
	p.BloodSugar = floatPtr(sugar)
	p.GoalWeightKg = floatPtr(goalWeight)
	p.Gender = gender.String

	for _, f := range []struct {
		raw string
		dst *[]string
	}{{conditions, &p.HealthConditions}, {allergies, &p.Allergies}, {preferences, &p.CuisinePreferences}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode profile list for user %s: %w", userID, err)
		}
	}

	if p.WorkStart, err = clockPtr(workStart); err != nil {
		return nil, err
	}
	if p.WorkEnd, err = clockPtr(workEnd); err != nil {
		return nil, err
	}

	return &p, nil
}

// Upsert creates or replaces the profile keyed by p.UserID.
func (r *Repository) Upsert(ctx context.Context, p *Profile) error {
	conditions, err := marshalList(p.HealthConditions)
	if err != nil {
		return err
	}
	allergies, err := marshalList(p.Allergies)
	if err != nil {
		return err
	}
	preferences, err := marshalList(p.CuisinePreferences)
	if err != nil {
		return err
	}

	var workStart, workEnd any
	if p.WorkStart != nil {
		workStart = p.WorkStart.String()
	}
	if p.WorkEnd != nil {
		workEnd = p.WorkEnd.String()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			gender = excluded.gender,
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			blood_pressure_systolic = excluded.blood_pressure_systolic,
			blood_pressure_diastolic = excluded.blood_pressure_diastolic,
			blood_sugar = excluded.blood_sugar,
			health_conditions = excluded.health_conditions,
			goal_weight_kg = excluded.goal_weight_kg,
			goal_type = excluded.goal_type,
			diet_type = excluded.diet_type,
			allergies = excluded.allergies,
			cuisine_preferences = excluded.cuisine_preferences,
			equipment = excluded.equipment,
			wake_time = excluded.wake_time,
			sleep_time = excluded.sleep_time,
			work_start = excluded.work_start,
			work_end = excluded.work_end,
			country = excluded.country,
			city = excluded.city,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Age, nullString(p.Gender), p.WeightKg, p.HeightCm,
		p.BloodPressureSystolic, p.BloodPressureDiastolic, p.BloodSugar, conditions,
		p.GoalWeightKg, string(p.Goal), string(p.Diet), allergies, preferences, string(p.Equipment),
		p.WakeTime.String(), p.SleepTime.String(), workStart, workEnd, p.Country, p.City,
		time.Now().UTC().Format(shared.TimestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", p.UserID, err)
	}
	return nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile list: %w", err)
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func clockPtr(v sql.NullString) (*ClockTime, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := ParseClockTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
