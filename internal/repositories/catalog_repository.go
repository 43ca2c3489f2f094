package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
)

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB) *catalogRepository {
	return &catalogRepository{
		db: db,
	}
}

// GetCourse retrieves a course by its ID
func (r *catalogRepository) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, slug, title, category
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Slug,
		&course.Title,
		&course.Category,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return &course, nil
}

// GetUnit retrieves a unit by its ID
func (r *catalogRepository) GetUnit(ctx context.Context, id int) (*models.Unit, error) {
	query := `
		SELECT id, course_id, title, order_index
		FROM units
		WHERE id = ?
		LIMIT 1
	`

	var unit models.Unit
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&unit.ID,
		&unit.CourseID,
		&unit.Title,
		&unit.Order,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	return &unit, nil
}

// GetLesson retrieves a lesson by its ID
func (r *catalogRepository) GetLesson(ctx context.Context, id int) (*models.Lesson, error) {
	query := `
		SELECT id, unit_id, course_id, title, COALESCE(group_name, ''), order_index
		FROM lessons
		WHERE id = ?
		LIMIT 1
	`

	var lesson models.Lesson
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.UnitID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.GroupName,
		&lesson.Order,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return &lesson, nil
}

// GetContentItem retrieves a content item by its ID
func (r *catalogRepository) GetContentItem(ctx context.Context, id int) (*models.ContentItem, error) {
	query := `
		SELECT id, lesson_id, title, kind, required, order_index
		FROM content_items
		WHERE id = ?
		LIMIT 1
	`

	var item models.ContentItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.LessonID,
		&item.Title,
		&item.Kind,
		&item.Required,
		&item.Order,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("content item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	return &item, nil
}

// CountRequiredContentForLesson counts the required content items of a lesson
func (r *catalogRepository) CountRequiredContentForLesson(ctx context.Context, lessonID int) (int, error) {
	query := `SELECT COUNT(*) FROM content_items WHERE lesson_id = ? AND required = TRUE`

	var count int
	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count required content: %w", err)
	}

	return count, nil
}

// LessonHasQuiz reports whether a lesson has quiz questions attached
func (r *catalogRepository) LessonHasQuiz(ctx context.Context, lessonID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM quiz_questions WHERE lesson_id = ?)`

	var hasQuiz bool
	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(&hasQuiz)
	if err != nil {
		return false, fmt.Errorf("failed to check lesson quiz: %w", err)
	}

	return hasQuiz, nil
}

// CountLessonsInUnit counts the lessons belonging to a unit
func (r *catalogRepository) CountLessonsInUnit(ctx context.Context, unitID int) (int, error) {
	query := `SELECT COUNT(*) FROM lessons WHERE unit_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, unitID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons in unit: %w", err)
	}

	return count, nil
}

// CountLessonsInCourse counts the lessons belonging to a course
func (r *catalogRepository) CountLessonsInCourse(ctx context.Context, courseID int) (int, error) {
	query := `SELECT COUNT(*) FROM lessons WHERE course_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons in course: %w", err)
	}

	return count, nil
}

// CountLessonsInGroup counts the lessons of a course tagged with a group name
func (r *catalogRepository) CountLessonsInGroup(ctx context.Context, courseID int, groupName string) (int, error) {
	query := `SELECT COUNT(*) FROM lessons WHERE course_id = ? AND group_name = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, courseID, groupName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons in group: %w", err)
	}

	return count, nil
}
