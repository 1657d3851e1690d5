package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/database/dbtest"
	"ai-health-planner/internal/llm"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/shared"
)

const recipeJSON = `{
  "name": "%s Bowl",
  "description": "Simple and filling",
  "ingredients": [{"name": "rice", "amount": "1 cup", "cost": "KES 40"}],
  "instructions": ["Cook", "Serve"],
  "calories": 500, "protein_g": 20, "carbs_g": 60, "fat_g": 12,
  "prep_time_mins": 20,
  "estimated_cost": "KES 200",
  "currency": "KES"
}`

const workoutJSON = "```json\n" + `{
  "name": "Evening Walk and Core",
  "description": "Low impact",
  "duration_mins": 40,
  "difficulty": "beginner",
  "best_time": "18:00",
  "warmup": [{"exercise": "march", "duration": "5 mins"}],
  "exercises": [{"name": "plank", "sets": 3, "reps": "30s", "rest": "30s"}],
  "cooldown": [{"exercise": "stretch", "duration": "5 mins"}]
}` + "\n```"

// scriptedGenerator answers meal prompts with a recipe named after the slot.
type scriptedGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt llm.Prompt) (llm.ContentResponse, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return llm.ContentResponse{}, g.err
	}
	usage := shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "test-model"}
	if strings.Contains(prompt.User, "workout") && !strings.Contains(prompt.User, "recipe") {
		return llm.ContentResponse{Content: workoutJSON, Usage: usage}, nil
	}
	for _, slot := range []string{"breakfast", "lunch", "dinner"} {
		if strings.Contains(prompt.User, "Create a "+slot+" recipe") {
			return llm.ContentResponse{Content: strings.Replace(recipeJSON, "%s", slot, 1), Usage: usage}, nil
		}
	}
	return llm.ContentResponse{}, errors.New("unexpected prompt")
}

func newTestApp(t *testing.T, gen llm.TextGenerator) *App {
	t.Helper()
	cfg := &config.Config{MealBatchMode: config.BatchModeAtomic}
	a := newApp(cfg, dbtest.New(t), gen)

	p := &profile.Profile{
		UserID:    "u1",
		Name:      "Wanjiru",
		Goal:      profile.GoalMaintain,
		Diet:      profile.DietRegular,
		Equipment: profile.EquipmentHome,
		WakeTime:  profile.MustClockTime("06:30"),
		SleepTime: profile.MustClockTime("22:30"),
		City:      "Nairobi",
		Country:   "Kenya",
	}
	if err := a.profiles.Upsert(context.Background(), p); err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
	return a
}

func TestGenerateMeals(t *testing.T) {
	gen := &scriptedGenerator{}
	a := newTestApp(t, gen)

	var out bytes.Buffer
	if err := a.GenerateMeals(context.Background(), "u1", &out); err != nil {
		t.Fatalf("GenerateMeals failed: %v", err)
	}
	for _, want := range []string{"=== MEALS FOR", "breakfast Bowl", "lunch Bowl", "dinner Bowl", "500 kcal"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in output:\n%s", want, out.String())
		}
	}
	if gen.calls != 3 {
		t.Errorf("expected 3 generation calls, got %d", gen.calls)
	}

	usage, err := a.metrics.GetDailyUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyUsage: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 3 {
		t.Errorf("expected 3 recorded executions, got %+v", usage)
	}
}

func TestGenerateMealsUnknownUser(t *testing.T) {
	a := newTestApp(t, &scriptedGenerator{})
	err := a.GenerateMeals(context.Background(), "nobody", &bytes.Buffer{})
	if !errors.Is(err, profile.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestGenerateWorkout(t *testing.T) {
	a := newTestApp(t, &scriptedGenerator{})

	var out bytes.Buffer
	if err := a.GenerateWorkout(context.Background(), "u1", &out); err != nil {
		t.Fatalf("GenerateWorkout failed: %v", err)
	}
	for _, want := range []string{"Evening Walk and Core (40 mins, beginner)", "Best time: 18:00.", "exercise  plank: 3 x 30s"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %q in output:\n%s", want, out.String())
		}
	}
}

func TestCleanupMetrics(t *testing.T) {
	a := newTestApp(t, &scriptedGenerator{})

	if err := a.CleanupMetrics(context.Background(), 0, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for non-positive days")
	}

	var out bytes.Buffer
	if err := a.CleanupMetrics(context.Background(), 30, &out); err != nil {
		t.Fatalf("CleanupMetrics failed: %v", err)
	}
	if !strings.Contains(out.String(), "removed 0 old metric records") {
		t.Errorf("unexpected output %q", out.String())
	}
}
