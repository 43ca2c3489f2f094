package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type streakRepository struct {
	db *sql.DB
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db *sql.DB) *streakRepository {
	return &streakRepository{
		db: db,
	}
}

// Get retrieves the streak state for a user. Returns (nil, nil) when the
// user has no streak yet.
func (r *streakRepository) Get(ctx context.Context, userID int) (*models.StreakState, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_activity_date
		FROM streak_states
		WHERE user_id = ?
		LIMIT 1
	`

	var state models.StreakState
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&state.UserID,
		&state.CurrentStreak,
		&state.LongestStreak,
		&state.LastActivityDate,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}

	return &state, nil
}

// Upsert creates or replaces the streak state for a user
func (r *streakRepository) Upsert(ctx context.Context, state *models.StreakState) error {
	query := `
		INSERT INTO streak_states (user_id, current_streak, longest_streak, last_activity_date)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			current_streak = VALUES(current_streak),
			longest_streak = VALUES(longest_streak),
			last_activity_date = VALUES(last_activity_date)
	`

	_, err := r.db.ExecContext(ctx, query,
		state.UserID,
		state.CurrentStreak,
		state.LongestStreak,
		state.LastActivityDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert streak state: %w", err)
	}

	return nil
}
