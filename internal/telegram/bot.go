package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"ai-health-planner/internal/config"
	"ai-health-planner/internal/metrics"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/shared"
	"ai-health-planner/internal/shopping"
	"ai-health-planner/internal/weightlog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const historyPreview = 10

// Sender delivers messages to Telegram. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Planner interface {
	GenerateMeals(ctx context.Context, userID string) (*planner.MealBatch, error)
	GenerateWorkout(ctx context.Context, userID string) (*planner.WorkoutPlan, error)
}

type PlanReader interface {
	GetDayPlan(ctx context.Context, owner, date string) (*planner.DayPlan, error)
}

type WeightStore interface {
	Upsert(ctx context.Context, e *weightlog.Entry) error
	ListRecent(ctx context.Context, userID string, limit int) ([]weightlog.Entry, error)
}

type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Dependencies are the services the bot's commands delegate to.
type Dependencies struct {
	Planner Planner
	Plans   PlanReader
	Weights WeightStore
	Usage   UsageReporter
	DB      metrics.Pinger
}

// Bot turns Telegram commands into plan pipeline calls.
type Bot struct {
	api      Sender
	deps     Dependencies
	allowed  map[int64]bool
	adminID  int64
	dataPath string
	now      func() time.Time

	inflight sync.WaitGroup
}

// NewBot initializes the Telegram API client and sets the webhook.
func NewBot(cfg *config.Config, deps Dependencies) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Info().Str("description", resp.Description).Msg("webhook set")

	return newBot(api, cfg, deps), nil
}

func newBot(api Sender, cfg *config.Config, deps Dependencies) *Bot {
	allowed := make(map[int64]bool, len(cfg.TelegramAllowedUserIDs))
	for _, id := range cfg.TelegramAllowedUserIDs {
		allowed[id] = true
	}
	return &Bot{
		api:      api,
		deps:     deps,
		allowed:  allowed,
		adminID:  cfg.AdminTelegramID,
		dataPath: filepath.Dir(cfg.DatabasePath),
		now:      time.Now,
	}
}

// RegisterHandlers mounts the webhook and a liveness probe on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := metrics.GetSysHealth(r.Context(), b.deps.DB, b.dataPath)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
}

// Wait blocks until every accepted update has been processed.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("error parsing update")
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		log.Warn().Int64("telegram_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized access attempt")
		return
	}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.processMessage(context.Background(), msg)
	}()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	command, args := parseCommand(msg.Text)
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	logger := log.With().Str("user_id", userID).Str("command", command).Logger()
	logger.Debug().Msg("processing command")

	switch command {
	case "/start", "/help":
		b.reply(chatID, helpText)
	case "/meals":
		b.handleMeals(ctx, chatID, userID)
	case "/workout":
		b.handleWorkout(ctx, chatID, userID)
	case "/today":
		b.handleToday(ctx, chatID, userID)
	case "/weight":
		b.handleWeight(ctx, chatID, userID, args)
	case "/history":
		b.handleHistory(ctx, chatID, userID)
	case "/metrics":
		if msg.From.ID != b.adminID {
			b.reply(chatID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(ctx, chatID)
	default:
		b.reply(chatID, "🤔 Unknown command. Send /help to see what I can do.")
	}
}

const helpText = `👋 *AI Health Planner*

/meals - generate today's breakfast, lunch and dinner
/workout - generate today's workout
/today - show today's plan
/weight <kg> [notes] - log today's weight
/history - recent weigh-ins`

func (b *Bot) handleMeals(ctx context.Context, chatID int64, userID string) {
	sent, err := b.reply(chatID, "🧑‍🍳 *Thinking...*\n(Planning breakfast, lunch and dinner)")
	if err != nil {
		return
	}

	batch, err := b.deps.Planner.GenerateMeals(ctx, userID)
	if err != nil {
		b.edit(chatID, sent.MessageID, errorText("generating meals", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatMealBatch(batch))

	if len(batch.Meals) > 0 {
		list := shopping.Build(&planner.DayPlan{Date: batch.Date, Meals: batch.Meals})
		b.reply(chatID, formatShoppingList(list))
	}
}

func (b *Bot) handleWorkout(ctx context.Context, chatID int64, userID string) {
	sent, err := b.reply(chatID, "🏋️ *Thinking...*\n(Fitting a workout into your day)")
	if err != nil {
		return
	}

	workout, err := b.deps.Planner.GenerateWorkout(ctx, userID)
	if err != nil {
		b.edit(chatID, sent.MessageID, errorText("generating workout", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatWorkout(workout))
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, userID string) {
	plan, err := b.deps.Plans.GetDayPlan(ctx, userID, shared.Today(b.now()))
	if err != nil {
		b.reply(chatID, errorText("loading today's plan", err))
		return
	}
	b.reply(chatID, formatDayPlan(plan))
}

func (b *Bot) handleWeight(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) == 0 {
		b.reply(chatID, "Usage: /weight <kg> [notes]")
		return
	}
	kg, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("❌ %q is not a number. Usage: /weight <kg> [notes]", args[0]))
		return
	}

	entry, err := weightlog.NewEntry(userID, kg, "", strings.Join(args[1:], " "), b.now())
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if err := b.deps.Weights.Upsert(ctx, entry); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to log weight")
		b.reply(chatID, errorText("logging weight", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Logged *%s kg* for %s", formatKg(entry.WeightKg), entry.Date))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, userID string) {
	entries, err := b.deps.Weights.ListRecent(ctx, userID, weightlog.HistoryLimit)
	if err != nil {
		b.reply(chatID, errorText("loading history", err))
		return
	}
	b.reply(chatID, formatHistory(entries, historyPreview))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	usage, err := b.deps.Usage.GetDailyUsage(ctx, 7)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch metrics")
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	health := metrics.GetSysHealth(ctx, b.deps.DB, b.dataPath)
	b.reply(chatID, formatMetrics(usage, health))
}

func (b *Bot) reply(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to edit reply")
	}
}

func errorText(action string, err error) string {
	if errors.Is(err, profile.ErrProfileNotFound) {
		return "👤 *No profile yet.*\nSave your profile with `PUT /api/profile` first."
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

// parseCommand splits "/weight@planner_bot 71.2 after run" into
// "/weight" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	command := strings.ToLower(fields[0])
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	return command, fields[1:]
}

