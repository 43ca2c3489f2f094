package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type quizAttemptRepository struct {
	db *sql.DB
}

// NewQuizAttemptRepository creates a new quiz attempt repository
func NewQuizAttemptRepository(db *sql.DB) *quizAttemptRepository {
	return &quizAttemptRepository{
		db: db,
	}
}

// Create inserts a new quiz attempt
func (r *quizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (enrollment_id, lesson_id, score, total, earned_points)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		attempt.EnrollmentID,
		attempt.LessonID,
		attempt.Score,
		attempt.Total,
		attempt.EarnedPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	attempt.ID = int(id)
	return nil
}

// CountByEnrollmentAndLesson counts attempts for a lesson within an enrollment
func (r *quizAttemptRepository) CountByEnrollmentAndLesson(ctx context.Context, enrollmentID, lessonID int) (int, error) {
	query := `SELECT COUNT(*) FROM quiz_attempts WHERE enrollment_id = ? AND lesson_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID, lessonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quiz attempts: %w", err)
	}

	return count, nil
}

// GetBestAttempt retrieves the attempt with the highest score ratio for a
// lesson within an enrollment. Returns (nil, nil) when no attempt exists.
func (r *quizAttemptRepository) GetBestAttempt(ctx context.Context, enrollmentID, lessonID int) (*models.QuizAttempt, error) {
	query := `
		SELECT id, enrollment_id, lesson_id, score, total, earned_points, created_at
		FROM quiz_attempts
		WHERE enrollment_id = ? AND lesson_id = ?
		ORDER BY score * 100 / total DESC, created_at ASC
		LIMIT 1
	`

	var attempt models.QuizAttempt
	err := r.db.QueryRowContext(ctx, query, enrollmentID, lessonID).Scan(
		&attempt.ID,
		&attempt.EnrollmentID,
		&attempt.LessonID,
		&attempt.Score,
		&attempt.Total,
		&attempt.EarnedPoints,
		&attempt.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best quiz attempt: %w", err)
	}

	return &attempt, nil
}
