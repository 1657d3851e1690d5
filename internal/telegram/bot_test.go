package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/metrics"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/recipe"
	"ai-health-planner/internal/weightlog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type mockSender struct {
	mu    sync.Mutex
	texts []string
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		m.texts = append(m.texts, v.Text)
	case tgbotapi.EditMessageTextConfig:
		m.texts = append(m.texts, v.Text)
	}
	return tgbotapi.Message{MessageID: len(m.texts)}, nil
}

func (m *mockSender) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type mockPlanner struct {
	batch   *planner.MealBatch
	workout *planner.WorkoutPlan
	err     error
	userIDs []string
}

func (m *mockPlanner) GenerateMeals(ctx context.Context, userID string) (*planner.MealBatch, error) {
	m.userIDs = append(m.userIDs, userID)
	return m.batch, m.err
}

func (m *mockPlanner) GenerateWorkout(ctx context.Context, userID string) (*planner.WorkoutPlan, error) {
	m.userIDs = append(m.userIDs, userID)
	return m.workout, m.err
}

type mockPlans struct{ plan *planner.DayPlan }

func (m *mockPlans) GetDayPlan(ctx context.Context, owner, date string) (*planner.DayPlan, error) {
	if m.plan == nil {
		return &planner.DayPlan{Date: date}, nil
	}
	return m.plan, nil
}

type mockWeights struct{ entries []weightlog.Entry }

func (m *mockWeights) Upsert(ctx context.Context, e *weightlog.Entry) error {
	m.entries = append([]weightlog.Entry{*e}, m.entries...)
	return nil
}

func (m *mockWeights) ListRecent(ctx context.Context, userID string, limit int) ([]weightlog.Entry, error) {
	return m.entries, nil
}

type mockUsage struct{}

func (mockUsage) GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return []metrics.DailyUsage{{Date: "2024-03-10", TotalPrompt: 900, TotalCompletion: 300, TotalExecution: 4, Failures: 1}}, nil
}

const (
	memberID = int64(11)
	adminID  = int64(22)
)

type fixture struct {
	bot     *Bot
	sender  *mockSender
	planner *mockPlanner
	weights *mockWeights
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sender: &mockSender{}, planner: &mockPlanner{}, weights: &mockWeights{}}
	cfg := &config.Config{
		TelegramAllowedUserIDs: []int64{memberID, adminID},
		AdminTelegramID:        adminID,
		DatabasePath:           t.TempDir() + "/planner.db",
	}
	f.bot = newBot(f.sender, cfg, Dependencies{
		Planner: f.planner,
		Plans:   &mockPlans{},
		Weights: f.weights,
		Usage:   mockUsage{},
	})
	f.bot.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	return f
}

func message(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: from, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: from},
	}
}

func sampleBatch() *planner.MealBatch {
	return &planner.MealBatch{
		Date: "2024-03-10",
		Meals: []planner.MealPlanEntry{
			{MealType: planner.Breakfast, Recipe: &recipe.Recipe{Name: "Oat_Bowl", Calories: 420, PrepTimeMins: 10, EstimatedCost: "KES 150"}},
			{MealType: planner.Lunch, Recipe: &recipe.Recipe{Name: "Bean Stew", Calories: 650, PrepTimeMins: 35,
				Ingredients: []recipe.Ingredient{{Name: "Beans", Amount: "2 cups", Cost: "KES 80"}}}},
		},
		Failures: []planner.SlotFailure{{Slot: planner.Dinner, Error: "dinner: generation timed out"}},
	}
}

func TestFormatMealBatch(t *testing.T) {
	out := formatMealBatch(sampleBatch())

	for _, want := range []string{
		"🍽 *Meals for 2024-03-10*",
		"*Breakfast*: Oat\\_Bowl",
		"⏱ 10 mins • 🔥 420 kcal",
		"💰 KES 150",
		"*Lunch*: Bean Stew",
		"🔥 *Total:* 1070 kcal",
		"⚠️ *Dinner* could not be planned",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatWorkout(t *testing.T) {
	w := &planner.WorkoutPlan{
		Name:            "Lunch Break Circuit",
		DurationMins:    35,
		Difficulty:      planner.DifficultyBeginner,
		EquipmentNeeded: "none",
		Notes:           "Best time: 12:30. Quick bodyweight circuit.",
		Warmup:          []planner.TimedStep{{Exercise: "Marching", Duration: "5 min"}},
		Exercises:       []planner.Exercise{{Name: "Squats", Sets: 3, Reps: "12", Rest: "60s"}},
		Cooldown:        []planner.TimedStep{{Exercise: "Stretch", Duration: "5 min"}},
	}
	out := formatWorkout(w)
	for _, want := range []string{"🏋️ *Lunch Break Circuit*", "*Warm-up*", "• Marching (5 min)", "• Squats: 3 x 12, rest 60s", "*Cool-down*"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Completed") {
		t.Error("workout must not be shown as completed")
	}
}

func TestFormatHistory(t *testing.T) {
	if got := formatHistory(nil, 10); !strings.Contains(got, "No weigh-ins yet") {
		t.Errorf("unexpected empty history %q", got)
	}

	entries := []weightlog.Entry{
		{Date: "2024-03-10", WeightKg: 70.5},
		{Date: "2024-03-09", WeightKg: 71},
		{Date: "2024-03-08", WeightKg: 71.5, Notes: "after_party"},
	}
	out := formatHistory(entries, 2)
	if !strings.Contains(out, "• 2024-03-10: 70.5 kg") {
		t.Errorf("missing newest entry:\n%s", out)
	}
	if strings.Contains(out, "2024-03-08: 71.5") {
		t.Errorf("entries beyond the limit must be hidden:\n%s", out)
	}
	if !strings.Contains(out, "*Change:* -1.0 kg since 2024-03-08") {
		t.Errorf("missing change line:\n%s", out)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("/Weight@planner_bot 71.2 after run")
	if cmd != "/weight" {
		t.Errorf("expected /weight, got %q", cmd)
	}
	if len(args) != 3 || args[0] != "71.2" {
		t.Errorf("unexpected args %v", args)
	}
	if cmd, _ := parseCommand("   "); cmd != "" {
		t.Errorf("expected empty command, got %q", cmd)
	}
}

func TestProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Meals", func(t *testing.T) {
		f := newFixture(t)
		f.planner.batch = sampleBatch()
		f.bot.processMessage(ctx, message(memberID, "/meals"))

		if len(f.sender.texts) != 3 {
			t.Fatalf("expected status, plan and shopping list, got %d", len(f.sender.texts))
		}
		if !strings.Contains(f.sender.texts[0], "Thinking") {
			t.Errorf("unexpected status %q", f.sender.texts[0])
		}
		if !strings.Contains(f.sender.texts[1], "Bean Stew") {
			t.Errorf("plan not delivered: %q", f.sender.texts[1])
		}
		if !strings.Contains(f.sender.last(), "🛒 *Shopping List*") || !strings.Contains(f.sender.last(), "• beans (2 cups)") {
			t.Errorf("shopping list not delivered: %q", f.sender.last())
		}
		if len(f.planner.userIDs) != 1 || f.planner.userIDs[0] != "11" {
			t.Errorf("expected generation for user 11, got %v", f.planner.userIDs)
		}
	})

	t.Run("MissingProfile", func(t *testing.T) {
		f := newFixture(t)
		f.planner.err = profile.ErrProfileNotFound
		f.bot.processMessage(ctx, message(memberID, "/workout"))
		if !strings.Contains(f.sender.last(), "No profile yet") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}
	})

	t.Run("GenerationError", func(t *testing.T) {
		f := newFixture(t)
		f.planner.err = errors.New("lunch: upstream `boom`")
		f.bot.processMessage(ctx, message(memberID, "/meals"))
		if !strings.Contains(f.sender.last(), "lunch: upstream 'boom'") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}
	})

	t.Run("Weight", func(t *testing.T) {
		f := newFixture(t)
		f.bot.processMessage(ctx, message(memberID, "/weight 71,5 after run"))
		if len(f.weights.entries) != 1 {
			t.Fatalf("expected one entry, got %d", len(f.weights.entries))
		}
		e := f.weights.entries[0]
		if e.WeightKg != 71.5 || e.Notes != "after run" || e.Date != "2024-03-10" || e.UserID != "11" {
			t.Errorf("unexpected entry %+v", e)
		}
		if !strings.Contains(f.sender.last(), "Logged *71.5 kg* for 2024-03-10") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}
	})

	t.Run("WeightInvalid", func(t *testing.T) {
		f := newFixture(t)
		f.bot.processMessage(ctx, message(memberID, "/weight heavy"))
		f.bot.processMessage(ctx, message(memberID, "/weight -3"))
		f.bot.processMessage(ctx, message(memberID, "/weight"))
		if len(f.weights.entries) != 0 {
			t.Errorf("invalid weights must not be stored: %v", f.weights.entries)
		}
		if !strings.Contains(f.sender.last(), "Usage: /weight") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}
	})

	t.Run("Today", func(t *testing.T) {
		f := newFixture(t)
		f.bot.processMessage(ctx, message(memberID, "/today"))
		if !strings.Contains(f.sender.last(), "Plan for 2024-03-10") || !strings.Contains(f.sender.last(), "Nothing planned yet") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}
	})

	t.Run("MetricsAdminOnly", func(t *testing.T) {
		f := newFixture(t)
		f.bot.processMessage(ctx, message(memberID, "/metrics"))
		if !strings.Contains(f.sender.last(), "Admin only") {
			t.Errorf("unexpected reply %q", f.sender.last())
		}

		f.bot.processMessage(ctx, message(adminID, "/metrics"))
		if !strings.Contains(f.sender.last(), "1200 tokens (4 execs, 1 failed)") {
			t.Errorf("unexpected report %q", f.sender.last())
		}
	})
}

func TestWebhook(t *testing.T) {
	f := newFixture(t)
	f.planner.workout = &planner.WorkoutPlan{Name: "Evening Walk", DurationMins: 40}
	mux := http.NewServeMux()
	f.bot.RegisterHandlers(mux)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		f.bot.Wait()
		return rec.Code
	}

	if code := post("not json"); code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed update, got %d", code)
	}

	if code := post(`{"update_id":1,"message":{"message_id":1,"text":"/workout","from":{"id":99},"chat":{"id":99}}}`); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if len(f.sender.texts) != 0 {
		t.Fatalf("unauthorized users must be ignored, sent %v", f.sender.texts)
	}

	post(`{"update_id":2,"message":{"message_id":2,"text":"/workout","from":{"id":11},"chat":{"id":11}}}`)
	if !strings.Contains(f.sender.last(), "Evening Walk") {
		t.Errorf("workout not delivered: %q", f.sender.last())
	}
}
