package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"ai-health-planner/internal/metrics"
	"ai-health-planner/internal/planner"
	"ai-health-planner/internal/shopping"
	"ai-health-planner/internal/weightlog"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// esc escapes model-generated text for legacy Markdown.
func esc(s string) string {
	return markdownEscaper.Replace(s)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

func formatMealBatch(batch *planner.MealBatch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽 *Meals for %s*\n\n", batch.Date)
	writeMeals(&sb, batch.Meals)

	for _, f := range batch.Failures {
		fmt.Fprintf(&sb, "⚠️ *%s* could not be planned: %s\n", title(string(f.Slot)), esc(f.Error))
	}
	return sb.String()
}

func writeMeals(sb *strings.Builder, meals []planner.MealPlanEntry) {
	total := 0
	for _, m := range meals {
		done := ""
		if m.Completed {
			done = " ✅"
		}
		if m.Recipe == nil {
			fmt.Fprintf(sb, "*%s*%s\n\n", title(string(m.MealType)), done)
			continue
		}
		r := m.Recipe
		total += r.Calories
		fmt.Fprintf(sb, "*%s*: %s%s\n", title(string(m.MealType)), esc(r.Name), done)
		fmt.Fprintf(sb, "⏱ %d mins • 🔥 %d kcal • P %.0fg / C %.0fg / F %.0fg\n", r.PrepTimeMins, r.Calories, r.ProteinG, r.CarbsG, r.FatG)
		if r.EstimatedCost != "" {
			fmt.Fprintf(sb, "💰 %s\n", esc(r.EstimatedCost))
		}
		if r.Description != "" {
			fmt.Fprintf(sb, "_%s_\n", esc(r.Description))
		}
		sb.WriteString("\n")
	}
	if total > 0 {
		fmt.Fprintf(sb, "🔥 *Total:* %d kcal\n", total)
	}
}

func formatWorkout(w *planner.WorkoutPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏋️ *%s*\n⏱ %d mins • %s • equipment: %s\n", esc(w.Name), w.DurationMins, w.Difficulty, w.EquipmentNeeded)
	if w.Notes != "" {
		fmt.Fprintf(&sb, "_%s_\n", esc(w.Notes))
	}

	writeSteps(&sb, "Warm-up", w.Warmup)
	sb.WriteString("\n*Main*\n")
	for _, e := range w.Exercises {
		fmt.Fprintf(&sb, "• %s: %d x %s, rest %s\n", esc(e.Name), e.Sets, esc(e.Reps), esc(e.Rest))
	}
	writeSteps(&sb, "Cool-down", w.Cooldown)

	if w.Completed {
		sb.WriteString("\n✅ Completed")
	}
	return sb.String()
}

func writeSteps(sb *strings.Builder, heading string, steps []planner.TimedStep) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n*%s*\n", heading)
	for _, s := range steps {
		fmt.Fprintf(sb, "• %s (%s)\n", esc(s.Exercise), esc(s.Duration))
	}
}

func formatDayPlan(p *planner.DayPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Plan for %s*\n\n", p.Date)
	if len(p.Meals) == 0 && p.Workout == nil {
		sb.WriteString("_Nothing planned yet._ Try /meals or /workout.")
		return sb.String()
	}
	writeMeals(&sb, p.Meals)
	if p.Workout != nil {
		sb.WriteString("\n")
		sb.WriteString(formatWorkout(p.Workout))
	}
	return sb.String()
}

// formatHistory lists up to limit entries, newest first.
func formatHistory(entries []weightlog.Entry, limit int) string {
	if len(entries) == 0 {
		return "⚖️ No weigh-ins yet. Log one with /weight <kg>."
	}

	var sb strings.Builder
	sb.WriteString("⚖️ *Weight History*\n\n")
	shown := entries
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, e := range shown {
		fmt.Fprintf(&sb, "• %s: %s kg", e.Date, formatKg(e.WeightKg))
		if e.Notes != "" {
			fmt.Fprintf(&sb, " _%s_", esc(e.Notes))
		}
		sb.WriteString("\n")
	}

	if len(entries) > 1 {
		change := entries[0].WeightKg - entries[len(entries)-1].WeightKg
		fmt.Fprintf(&sb, "\n📉 *Change:* %+.1f kg since %s", change, entries[len(entries)-1].Date)
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
		if d.Failures > 0 {
			fmt.Fprintf(&sb, ", %d failed", d.Failures)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• Database: %s\n", health.Database)
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

func formatShoppingList(list *shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, item := range list.Items {
		fmt.Fprintf(&sb, "• %s", esc(item.Name))
		if len(item.Amounts) > 0 {
			fmt.Fprintf(&sb, " (%s)", esc(strings.Join(item.Amounts, " + ")))
		}
		sb.WriteString("\n")
	}
	if list.EstimatedTotal > 0 {
		fmt.Fprintf(&sb, "\n💰 *Estimated:* %s %.0f", list.Currency, list.EstimatedTotal)
		if list.Unpriced > 0 {
			fmt.Fprintf(&sb, " (+%d unpriced)", list.Unpriced)
		}
	}
	return sb.String()
}
