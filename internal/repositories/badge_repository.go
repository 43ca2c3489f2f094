package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type badgeRepository struct {
	db *sql.DB
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *sql.DB) *badgeRepository {
	return &badgeRepository{
		db: db,
	}
}

// GetAll retrieves the full badge catalog
func (r *badgeRepository) GetAll(ctx context.Context) ([]models.Badge, error) {
	query := `
		SELECT id, slug, title, description, requirement_type, requirement_value, COALESCE(category, ''), bonus, rarity
		FROM badges
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	defer rows.Close()

	var badges []models.Badge
	for rows.Next() {
		var badge models.Badge
		if err := rows.Scan(
			&badge.ID,
			&badge.Slug,
			&badge.Title,
			&badge.Description,
			&badge.RequirementType,
			&badge.RequirementValue,
			&badge.Category,
			&badge.Bonus,
			&badge.Rarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate badges: %w", err)
	}

	return badges, nil
}

// GetUserBadges retrieves all badge records for a user
func (r *badgeRepository) GetUserBadges(ctx context.Context, userID int) ([]models.UserBadge, error) {
	query := `
		SELECT user_id, badge_id, progress, unlocked_at
		FROM user_badges
		WHERE user_id = ?
		ORDER BY badge_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}
	defer rows.Close()

	var userBadges []models.UserBadge
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.Progress, &ub.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		userBadges = append(userBadges, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user badges: %w", err)
	}

	return userBadges, nil
}

// Unlock records a badge unlock for a user. The unlock is
// unlock-if-not-unlocked: the timestamp is only written when it is currently
// NULL, and the return value reports whether this call performed the unlock.
func (r *badgeRepository) Unlock(ctx context.Context, userID, badgeID, progress int) (bool, error) {
	insertQuery := `
		INSERT IGNORE INTO user_badges (user_id, badge_id, progress, unlocked_at)
		VALUES (?, ?, ?, NOW())
	`

	result, err := r.db.ExecContext(ctx, insertQuery, userID, badgeID, progress)
	if err != nil {
		return false, fmt.Errorf("failed to unlock badge: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// The row already existed (progress snapshot or earlier unlock). Set the
	// timestamp only if it is currently unset; affected rows tell us whether
	// this call performed the unlock.
	updateQuery := `
		UPDATE user_badges
		SET unlocked_at = NOW(), progress = GREATEST(progress, ?)
		WHERE user_id = ? AND badge_id = ? AND unlocked_at IS NULL
	`

	result, err = r.db.ExecContext(ctx, updateQuery, progress, userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to unlock badge: %w", err)
	}

	affected, err = result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// UpsertProgress stores the latest progress snapshot for a locked badge
func (r *badgeRepository) UpsertProgress(ctx context.Context, userID, badgeID, progress int) error {
	query := `
		INSERT INTO user_badges (user_id, badge_id, progress)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE progress = VALUES(progress)
	`

	_, err := r.db.ExecContext(ctx, query, userID, badgeID, progress)
	if err != nil {
		return fmt.Errorf("failed to upsert badge progress: %w", err)
	}

	return nil
}
