package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type contentProgressRepository struct {
	db *sql.DB
}

// NewContentProgressRepository creates a new content progress repository
func NewContentProgressRepository(db *sql.DB) *contentProgressRepository {
	return &contentProgressRepository{
		db: db,
	}
}

// GetByEnrollmentAndContent retrieves the progress record for one content
// item. Returns (nil, nil) when no record exists yet.
func (r *contentProgressRepository) GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.ContentProgress, error) {
	query := `
		SELECT id, enrollment_id, content_id, last_position, completed, reward_paid, completed_at
		FROM content_progress
		WHERE enrollment_id = ? AND content_id = ?
		LIMIT 1
	`

	var progress models.ContentProgress
	err := r.db.QueryRowContext(ctx, query, enrollmentID, contentID).Scan(
		&progress.ID,
		&progress.EnrollmentID,
		&progress.ContentID,
		&progress.LastPosition,
		&progress.Completed,
		&progress.RewardPaid,
		&progress.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content progress: %w", err)
	}

	return &progress, nil
}

// Upsert creates or updates the progress record for one content item.
// The position always moves to the latest value; the completion flag is
// monotonic and the completion timestamp is only written on the first
// transition to completed.
func (r *contentProgressRepository) Upsert(ctx context.Context, progress *models.ContentProgress) error {
	query := `
		INSERT INTO content_progress (enrollment_id, content_id, last_position, completed, reward_paid, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			last_position = VALUES(last_position),
			completed = completed OR VALUES(completed),
			reward_paid = reward_paid OR VALUES(reward_paid),
			completed_at = COALESCE(completed_at, VALUES(completed_at))
	`

	_, err := r.db.ExecContext(ctx, query,
		progress.EnrollmentID,
		progress.ContentID,
		progress.LastPosition,
		progress.Completed,
		progress.RewardPaid,
		progress.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content progress: %w", err)
	}

	return nil
}

// CountCompletedRequiredForLesson counts how many required content items of a
// lesson the enrollment has completed
func (r *contentProgressRepository) CountCompletedRequiredForLesson(ctx context.Context, enrollmentID, lessonID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM content_progress cp
		INNER JOIN content_items ci ON ci.id = cp.content_id
		WHERE cp.enrollment_id = ? AND ci.lesson_id = ? AND ci.required = TRUE AND cp.completed = TRUE
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID, lessonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed required content: %w", err)
	}

	return count, nil
}
