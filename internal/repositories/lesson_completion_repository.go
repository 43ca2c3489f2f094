package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type lessonCompletionRepository struct {
	db *sql.DB
}

// NewLessonCompletionRepository creates a new lesson completion repository
func NewLessonCompletionRepository(db *sql.DB) *lessonCompletionRepository {
	return &lessonCompletionRepository{
		db: db,
	}
}

// MarkComplete records the one-time completion of a lesson. The insert is
// guarded by the primary key, so only the first call for a given
// (enrollment, lesson) pair reports a new completion; later calls return
// false and leave the original completion timestamp untouched.
func (r *lessonCompletionRepository) MarkComplete(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	query := `INSERT IGNORE INTO lesson_completions (enrollment_id, lesson_id) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, enrollmentID, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to mark lesson complete: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// Exists checks whether a lesson is already complete for an enrollment
func (r *lessonCompletionRepository) Exists(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM lesson_completions WHERE enrollment_id = ? AND lesson_id = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, lessonID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check lesson completion: %w", err)
	}

	return exists, nil
}

// CountByEnrollment counts completed lessons in an enrollment
func (r *lessonCompletionRepository) CountByEnrollment(ctx context.Context, enrollmentID int) (int, error) {
	query := `SELECT COUNT(*) FROM lesson_completions WHERE enrollment_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lesson completions: %w", err)
	}

	return count, nil
}

// CountCompletedForUnit counts completed lessons belonging to a unit
func (r *lessonCompletionRepository) CountCompletedForUnit(ctx context.Context, enrollmentID, unitID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_completions lc
		INNER JOIN lessons l ON l.id = lc.lesson_id
		WHERE lc.enrollment_id = ? AND l.unit_id = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID, unitID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons for unit: %w", err)
	}

	return count, nil
}

// CountCompletedForGroup counts completed lessons tagged with a group name
func (r *lessonCompletionRepository) CountCompletedForGroup(ctx context.Context, enrollmentID int, groupName string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_completions lc
		INNER JOIN lessons l ON l.id = lc.lesson_id
		WHERE lc.enrollment_id = ? AND l.group_name = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID, groupName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons for group: %w", err)
	}

	return count, nil
}
