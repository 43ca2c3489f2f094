package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// statsRepository answers the aggregate questions the badge engine and the
// milestone evaluator dispatch on. Every method is a single read-only query.
type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *sql.DB) *statsRepository {
	return &statsRepository{
		db: db,
	}
}

// CountCompletedCourses counts the courses a user has fully completed
// (every lesson of the course is complete within the user's enrollment)
func (r *statsRepository) CountCompletedCourses(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM enrollments e
		WHERE e.user_id = ?
		AND (SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id) > 0
		AND (SELECT COUNT(*) FROM lesson_completions lc WHERE lc.enrollment_id = e.id) =
			(SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed courses: %w", err)
	}

	return count, nil
}

// CountCompletedCoursesByCategory counts completed courses within a category
func (r *statsRepository) CountCompletedCoursesByCategory(ctx context.Context, userID int, category string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM enrollments e
		INNER JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = ? AND c.category = ?
		AND (SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id) > 0
		AND (SELECT COUNT(*) FROM lesson_completions lc WHERE lc.enrollment_id = e.id) =
			(SELECT COUNT(*) FROM lessons l WHERE l.course_id = e.course_id)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed courses by category: %w", err)
	}

	return count, nil
}

// CountCompletedLessons counts all completed lessons across a user's enrollments
func (r *statsRepository) CountCompletedLessons(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_completions lc
		INNER JOIN enrollments e ON e.id = lc.enrollment_id
		WHERE e.user_id = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

// CountQuizAttempts counts all quiz attempts across a user's enrollments
func (r *statsRepository) CountQuizAttempts(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM quiz_attempts qa
		INNER JOIN enrollments e ON e.id = qa.enrollment_id
		WHERE e.user_id = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quiz attempts: %w", err)
	}

	return count, nil
}

// CountPerfectQuizAttempts counts quiz attempts with a full score
func (r *statsRepository) CountPerfectQuizAttempts(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM quiz_attempts qa
		INNER JOIN enrollments e ON e.id = qa.enrollment_id
		WHERE e.user_id = ? AND qa.score = qa.total
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count perfect quiz attempts: %w", err)
	}

	return count, nil
}

// CountUnlockedBadges counts badges a user has unlocked
func (r *statsRepository) CountUnlockedBadges(ctx context.Context, userID int) (int, error) {
	query := `SELECT COUNT(*) FROM user_badges WHERE user_id = ? AND unlocked_at IS NOT NULL`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unlocked badges: %w", err)
	}

	return count, nil
}
