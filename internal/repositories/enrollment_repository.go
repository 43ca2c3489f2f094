package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) *enrollmentRepository {
	return &enrollmentRepository{
		db: db,
	}
}

// GetByUserAndCourse retrieves the enrollment for a user in a course
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, created_at
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
	`

	var enrollment models.Enrollment
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &enrollment, nil
}

// GetByID retrieves an enrollment by its ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, created_at
		FROM enrollments
		WHERE id = ?
		LIMIT 1
	`

	var enrollment models.Enrollment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment by id: %w", err)
	}

	return &enrollment, nil
}

// HasClaimedUnit checks whether a unit reward was already claimed
func (r *enrollmentRepository) HasClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM enrollment_unit_claims WHERE enrollment_id = ? AND unit_id = ?)`

	var claimed bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, unitID).Scan(&claimed)
	if err != nil {
		return false, fmt.Errorf("failed to check unit claim: %w", err)
	}

	return claimed, nil
}

// AddClaimedUnit appends a unit to the enrollment's claimed set. The insert
// is add-if-absent: it returns false without error when the unit was already
// claimed by a concurrent request.
func (r *enrollmentRepository) AddClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error) {
	query := `INSERT IGNORE INTO enrollment_unit_claims (enrollment_id, unit_id) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, enrollmentID, unitID)
	if err != nil {
		return false, fmt.Errorf("failed to add unit claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// HasClaimedGroup checks whether a content-group reward was already claimed
func (r *enrollmentRepository) HasClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM enrollment_group_claims WHERE enrollment_id = ? AND group_name = ?)`

	var claimed bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, groupName).Scan(&claimed)
	if err != nil {
		return false, fmt.Errorf("failed to check group claim: %w", err)
	}

	return claimed, nil
}

// AddClaimedGroup appends a group to the enrollment's claimed set with
// add-if-absent semantics, mirroring AddClaimedUnit.
func (r *enrollmentRepository) AddClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error) {
	query := `INSERT IGNORE INTO enrollment_group_claims (enrollment_id, group_name) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, enrollmentID, groupName)
	if err != nil {
		return false, fmt.Errorf("failed to add group claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// CountClaimedGroups returns how many content groups were already claimed
// for an enrollment. Used to pick the progressive reward tier.
func (r *enrollmentRepository) CountClaimedGroups(ctx context.Context, enrollmentID int) (int, error) {
	query := `SELECT COUNT(*) FROM enrollment_group_claims WHERE enrollment_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, enrollmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group claims: %w", err)
	}

	return count, nil
}
