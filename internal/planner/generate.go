package planner

import (
	"context"
	"fmt"
	"time"

	"ai-health-planner/internal/profile"
	"ai-health-planner/internal/shared"

	"github.com/rs/zerolog/log"
)

// generate runs one request through prompt, model call, sanitizer and
// validator. The result is a *GeneratedRecipe or a *GeneratedWorkout.
func (p *Planner) generate(ctx context.Context, req GenerationRequest, c Constraints, agent string) (any, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: agent, UserID: req.owner().UserID, Status: shared.StatusFailed}
	defer func() {
		meta.Latency = time.Since(start)
		p.recordMeta(ctx, meta)
	}()

	prompt, err := BuildPrompt(req, c)
	if err != nil {
		return nil, err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	meta.Usage = resp.Usage

	payload, err := Validate(Sanitize(resp.Content), req.Shape())
	if err != nil {
		log.Warn().Err(err).Str("agent", agent).Str("response", truncate(resp.Content, 500)).Msg("generated payload rejected")
		return nil, err
	}

	meta.Status = shared.StatusOK
	return payload, nil
}

func (p *Planner) runMealGenerator(ctx context.Context, prof *profile.Profile, slot MealSlot, c Constraints) (*GeneratedRecipe, error) {
	out, err := p.generate(ctx, MealRequest{Slot: slot, Profile: prof}, c, "MealGenerator:"+string(slot))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", slot, err)
	}

	r := out.(*GeneratedRecipe)
	if notes := recipeAdvisories(r, prof, slot, c); len(notes) > 0 {
		log.Warn().Str("user_id", prof.UserID).Str("slot", string(slot)).Strs("advisories", notes).
			Msg("recipe ignores requested constraints")
	}
	return r, nil
}

func (p *Planner) runWorkoutGenerator(ctx context.Context, prof *profile.Profile, c Constraints) (*GeneratedWorkout, error) {
	out, err := p.generate(ctx, WorkoutRequest{Profile: prof}, c, "WorkoutGenerator")
	if err != nil {
		return nil, fmt.Errorf("workout: %w", err)
	}

	w := out.(*GeneratedWorkout)
	if notes := workoutAdvisories(w, c); len(notes) > 0 {
		log.Warn().Str("user_id", prof.UserID).Strs("advisories", notes).Msg("workout ignores requested constraints")
	}
	return w, nil
}

func (p *Planner) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.RecordMeta(ctx, meta); err != nil {
		log.Error().Err(err).Str("agent", meta.AgentName).Msg("failed to record execution metric")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
