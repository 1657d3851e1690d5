package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"ai-health-planner/internal/recipe"
)

// GeneratedRecipe is a recipe payload that passed schema validation.
type GeneratedRecipe struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Ingredients   []recipe.Ingredient `json:"ingredients"`
	Instructions  []string            `json:"instructions"`
	Calories      int                 `json:"calories"`
	ProteinG      float64             `json:"protein_g"`
	CarbsG        float64             `json:"carbs_g"`
	FatG          float64             `json:"fat_g"`
	PrepTimeMins  int                 `json:"prep_time_mins"`
	EstimatedCost string              `json:"estimated_cost"`
	Currency      string              `json:"currency"`
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// TimedStep is a warm-up or cool-down movement.
type TimedStep struct {
	Exercise string `json:"exercise"`
	Duration string `json:"duration"`
}

// Exercise is one block of the main workout.
type Exercise struct {
	Name  string `json:"name"`
	Sets  int    `json:"sets"`
	Reps  string `json:"reps"`
	Rest  string `json:"rest"`
	Notes string `json:"notes,omitempty"`
}

// GeneratedWorkout is a workout payload that passed schema validation.
type GeneratedWorkout struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	DurationMins int         `json:"duration_mins"`
	Difficulty   Difficulty  `json:"difficulty"`
	BestTime     string      `json:"best_time"`
	Warmup       []TimedStep `json:"warmup"`
	Exercises    []Exercise  `json:"exercises"`
	Cooldown     []TimedStep `json:"cooldown"`
}

// Validate parses sanitized text as the given shape. The result is a
// *GeneratedRecipe or a *GeneratedWorkout.
func Validate(text string, shape Shape) (any, error) {
	switch shape {
	case ShapeRecipe:
		return ValidateRecipe(text)
	case ShapeWorkout:
		return ValidateWorkout(text)
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
}

// ValidateRecipe parses text as a recipe and checks every required field.
func ValidateRecipe(text string) (*GeneratedRecipe, error) {
	c, err := parseObject(text, ShapeRecipe)
	if err != nil {
		return nil, err
	}

	r := &GeneratedRecipe{
		Name:          c.nonBlank("name"),
		Description:   c.str("description"),
		Calories:      c.positiveInt("calories"),
		ProteinG:      c.nonNegative("protein_g"),
		CarbsG:        c.nonNegative("carbs_g"),
		FatG:          c.nonNegative("fat_g"),
		PrepTimeMins:  c.positiveInt("prep_time_mins"),
		EstimatedCost: c.text("estimated_cost"),
		Currency:      c.nonBlank("currency"),
	}

	for i, raw := range c.array("ingredients", true) {
		ic, ok := c.object(raw, fmt.Sprintf("ingredients[%d]", i))
		if !ok {
			continue
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:   ic.nonBlank("name"),
			Amount: ic.text("amount"),
			Cost:   ic.text("cost"),
		})
	}
	for i, raw := range c.array("instructions", true) {
		var step string
		if err := json.Unmarshal(raw, &step); err != nil || strings.TrimSpace(step) == "" {
			c.fail(fmt.Sprintf("instructions[%d]", i), "must be a non-empty string")
			continue
		}
		r.Instructions = append(r.Instructions, step)
	}

	if err := c.violation(ShapeRecipe); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateWorkout parses text as a workout and checks every required field.
func ValidateWorkout(text string) (*GeneratedWorkout, error) {
	c, err := parseObject(text, ShapeWorkout)
	if err != nil {
		return nil, err
	}

	w := &GeneratedWorkout{
		Name:         c.nonBlank("name"),
		Description:  c.str("description"),
		DurationMins: c.positiveInt("duration_mins"),
		BestTime:     c.nonBlank("best_time"),
		Warmup:       c.timedSteps("warmup"),
		Cooldown:     c.timedSteps("cooldown"),
	}

	if d, ok := c.strOK("difficulty"); ok {
		switch Difficulty(d) {
		case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
			w.Difficulty = Difficulty(d)
		default:
			c.fail("difficulty", fmt.Sprintf("%q must be one of beginner, intermediate, advanced", d))
		}
	}

	for i, raw := range c.array("exercises", true) {
		ec, ok := c.object(raw, fmt.Sprintf("exercises[%d]", i))
		if !ok {
			continue
		}
		w.Exercises = append(w.Exercises, Exercise{
			Name:  ec.nonBlank("name"),
			Sets:  ec.positiveInt("sets"),
			Reps:  ec.text("reps"),
			Rest:  ec.text("rest"),
			Notes: ec.optionalStr("notes"),
		})
	}

	if err := c.violation(ShapeWorkout); err != nil {
		return nil, err
	}
	return w, nil
}

// checker walks one JSON object and accumulates field problems so every
// violation is reported together.
type checker struct {
	path     string
	fields   map[string]json.RawMessage
	problems *[]string
}

func parseObject(text string, shape Shape) (checker, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return checker{}, &SchemaViolation{Shape: shape, Reason: "not parseable"}
	}
	return checker{fields: fields, problems: new([]string)}, nil
}

func (c checker) violation(shape Shape) error {
	if len(*c.problems) == 0 {
		return nil
	}
	return &SchemaViolation{Shape: shape, Reason: "missing or invalid fields", Fields: *c.problems}
}

func (c checker) at(name string) string {
	if c.path == "" {
		return name
	}
	return c.path + "." + name
}

func (c checker) fail(name, msg string) {
	*c.problems = append(*c.problems, c.at(name)+": "+msg)
}

func (c checker) raw(name string) (json.RawMessage, bool) {
	v, ok := c.fields[name]
	if !ok || string(v) == "null" {
		c.fail(name, "missing")
		return nil, false
	}
	return v, true
}

func (c checker) strOK(name string) (string, bool) {
	v, ok := c.raw(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		c.fail(name, "must be a string")
		return "", false
	}
	return s, true
}

func (c checker) str(name string) string {
	s, _ := c.strOK(name)
	return s
}

func (c checker) nonBlank(name string) string {
	s, ok := c.strOK(name)
	if ok && strings.TrimSpace(s) == "" {
		c.fail(name, "must not be empty")
	}
	return s
}

func (c checker) optionalStr(name string) string {
	v, ok := c.fields[name]
	if !ok || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		c.fail(name, "must be a string")
	}
	return s
}

// text accepts a string or a bare number, e.g. reps: 12 or reps: "8-10".
func (c checker) text(name string) string {
	v, ok := c.raw(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	c.fail(name, "must be a string or a number")
	return ""
}

func (c checker) number(name string) (float64, bool) {
	v, ok := c.raw(name)
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		c.fail(name, "must be a number")
		return 0, false
	}
	return f, true
}

func (c checker) nonNegative(name string) float64 {
	f, ok := c.number(name)
	if ok && f < 0 {
		c.fail(name, "must not be negative")
	}
	return f
}

func (c checker) positiveInt(name string) int {
	f, ok := c.number(name)
	if !ok {
		return 0
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		c.fail(name, "must be a whole number")
		return 0
	}
	if f <= 0 {
		c.fail(name, "must be positive")
	}
	return int(f)
}

func (c checker) array(name string, nonEmpty bool) []json.RawMessage {
	v, ok := c.raw(name)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		c.fail(name, "must be an array")
		return nil
	}
	if nonEmpty && len(items) == 0 {
		c.fail(name, "must not be empty")
	}
	return items
}

func (c checker) object(raw json.RawMessage, path string) (checker, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		*c.problems = append(*c.problems, path+": must be an object")
		return checker{}, false
	}
	return checker{path: path, fields: fields, problems: c.problems}, true
}

func (c checker) timedSteps(name string) []TimedStep {
	steps := []TimedStep{}
	for i, raw := range c.array(name, false) {
		sc, ok := c.object(raw, fmt.Sprintf("%s[%d]", c.at(name), i))
		if !ok {
			continue
		}
		steps = append(steps, TimedStep{
			Exercise: sc.nonBlank("exercise"),
			Duration: sc.text("duration"),
		})
	}
	return steps
}
