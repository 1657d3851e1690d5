package weightlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-health-planner/internal/shared"
)

// HistoryLimit is how many entries a history read returns.
const HistoryLimit = 90

var (
	ErrInvalidWeight = errors.New("weight_kg must be a positive number below 1000")
	ErrInvalidDate   = errors.New("date must be formatted as YYYY-MM-DD")
)

// Entry is one day's weigh-in.
type Entry struct {
	ID       int64   `json:"id"`
	UserID   string  `json:"user_id"`
	Date     string  `json:"date"`
	WeightKg float64 `json:"weight_kg"`
	Notes    string  `json:"notes"`
}

// NewEntry validates a weigh-in, defaulting date to today (UTC).
func NewEntry(userID string, weightKg float64, date, notes string, now time.Time) (*Entry, error) {
	if weightKg <= 0 || weightKg >= 1000 {
		return nil, ErrInvalidWeight
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = shared.Today(now)
	} else if !shared.ValidDate(date) {
		return nil, ErrInvalidDate
	}
	return &Entry{UserID: userID, Date: date, WeightKg: weightKg, Notes: strings.TrimSpace(notes)}, nil
}

// Repository stores weigh-ins keyed by (user, date).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Upsert writes e, replacing any entry for the same user and date.
func (r *Repository) Upsert(ctx context.Context, e *Entry) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO weight_log (user_id, date, weight_kg, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			notes = excluded.notes
		RETURNING id`,
		e.UserID, e.Date, e.WeightKg, e.Notes, time.Now().UTC().Format(shared.TimestampLayout),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert weight entry: %w", err)
	}
	return nil
}

// ListRecent returns the user's newest entries, most recent date first.
func (r *Repository) ListRecent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, weight_kg, notes
		FROM weight_log
		WHERE user_id = ?
		ORDER BY date DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.WeightKg, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan weight entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
