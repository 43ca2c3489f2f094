package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// EnrollmentRepository defines methods for enrollment data access
type EnrollmentRepository interface {
	// GetByUserAndCourse retrieves the enrollment for a user in a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns the enrollment and an error if any.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// HasClaimedUnit checks whether a unit reward was already claimed
	HasClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error)
	// AddClaimedUnit appends a unit to the claimed set with add-if-absent
	// semantics; returns false when the unit was already present
	AddClaimedUnit(ctx context.Context, enrollmentID, unitID int) (bool, error)
	// HasClaimedGroup checks whether a group reward was already claimed
	HasClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error)
	// AddClaimedGroup appends a group to the claimed set with add-if-absent
	// semantics; returns false when the group was already present
	AddClaimedGroup(ctx context.Context, enrollmentID int, groupName string) (bool, error)
	// CountClaimedGroups counts the groups already claimed for an enrollment
	CountClaimedGroups(ctx context.Context, enrollmentID int) (int, error)
}

// CatalogRepository defines methods for course structure metadata lookup
type CatalogRepository interface {
	// GetCourse retrieves a course by its ID
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	// GetUnit retrieves a unit by its ID
	GetUnit(ctx context.Context, id int) (*models.Unit, error)
	// GetLesson retrieves a lesson by its ID
	GetLesson(ctx context.Context, id int) (*models.Lesson, error)
	// GetContentItem retrieves a content item by its ID
	GetContentItem(ctx context.Context, id int) (*models.ContentItem, error)
	// CountRequiredContentForLesson counts a lesson's required content items
	CountRequiredContentForLesson(ctx context.Context, lessonID int) (int, error)
	// LessonHasQuiz reports whether a lesson has quiz questions attached
	LessonHasQuiz(ctx context.Context, lessonID int) (bool, error)
	// CountLessonsInUnit counts the lessons belonging to a unit
	CountLessonsInUnit(ctx context.Context, unitID int) (int, error)
	// CountLessonsInCourse counts the lessons belonging to a course
	CountLessonsInCourse(ctx context.Context, courseID int) (int, error)
	// CountLessonsInGroup counts a course's lessons tagged with a group name
	CountLessonsInGroup(ctx context.Context, courseID int, groupName string) (int, error)
}

// ContentProgressRepository defines methods for content progress data access
type ContentProgressRepository interface {
	// GetByEnrollmentAndContent retrieves the progress record for one
	// content item, or (nil, nil) when no record exists yet
	GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.ContentProgress, error)
	// Upsert creates or updates the progress record for one content item;
	// the completion flag is monotonic and the completion timestamp is
	// written once
	Upsert(ctx context.Context, progress *models.ContentProgress) error
	// CountCompletedRequiredForLesson counts how many required content items
	// of a lesson the enrollment has completed
	CountCompletedRequiredForLesson(ctx context.Context, enrollmentID, lessonID int) (int, error)
}

// RewardAwarder pays rewards through the ledger with exactly-once semantics
type RewardAwarder interface {
	// Award pays a reward once per (user, category, reference); returns
	// false when that key was already paid
	Award(ctx context.Context, userID, amount int, category models.RewardCategory, reference, description string, metadata map[string]any) (bool, error)
}

// LessonEvaluation describes the outcome of evaluating a lesson's
// completion predicates after a leaf event
type LessonEvaluation struct {
	NewlyComplete     bool
	UnitRewardAwarded bool
}

// LessonEvaluator re-derives lesson completion from underlying records and
// cascades the completion hierarchy on a first transition
type LessonEvaluator interface {
	// EvaluateLesson recomputes the completion predicates for a lesson and
	// runs the downstream cascade when the lesson first becomes complete
	EvaluateLesson(ctx context.Context, enrollment *models.Enrollment, lesson *models.Lesson) (*LessonEvaluation, error)
}

type contentProgressService struct {
	enrollmentRepo EnrollmentRepository
	catalogRepo    CatalogRepository
	progressRepo   ContentProgressRepository
	ledger         RewardAwarder
	lessonEval     LessonEvaluator
	logger         *zap.Logger
}

// NewContentProgressService creates a new content progress service
func NewContentProgressService(
	enrollmentRepo EnrollmentRepository,
	catalogRepo CatalogRepository,
	progressRepo ContentProgressRepository,
	ledger RewardAwarder,
	lessonEval LessonEvaluator,
	logger *zap.Logger,
) *contentProgressService {
	return &contentProgressService{
		enrollmentRepo: enrollmentRepo,
		catalogRepo:    catalogRepo,
		progressRepo:   progressRepo,
		ledger:         ledger,
		lessonEval:     lessonEval,
		logger:         logger,
	}
}

// RecordProgress upserts the progress record for a content item and, on a
// first completion of a rewardable item, pays the content reward and
// re-evaluates the owning lesson. Rewatches update the resume position only.
func (s *contentProgressService) RecordProgress(ctx context.Context, userID int, req *models.RecordProgressRequest) (*models.RecordProgressResult, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}

	item, err := s.catalogRepo.GetContentItem(ctx, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	lesson, err := s.catalogRepo.GetLesson(ctx, item.LessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("content item not found")
	}

	existing, err := s.progressRepo.GetByEnrollmentAndContent(ctx, enrollment.ID, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get content progress: %w", err)
	}

	isRewatch := existing != nil && existing.Completed
	firstCompletion := req.IsCompleted && !isRewatch

	progress := &models.ContentProgress{
		EnrollmentID: enrollment.ID,
		ContentID:    req.ContentID,
		LastPosition: req.LastPosition,
		Completed:    req.IsCompleted,
	}
	if firstCompletion {
		now := time.Now().UTC()
		progress.CompletedAt = &now
	}

	result := &models.RecordProgressResult{
		IsRewatch: isRewatch,
	}

	// Pay before persisting the reward-paid flag so a failed ledger insert
	// leaves the item eligible for the next completion event.
	if firstCompletion && item.Kind.Rewardable() {
		awarded, err := s.ledger.Award(ctx, userID, contentCompletionReward,
			models.RewardCategoryContentComplete,
			strconv.Itoa(item.ID),
			fmt.Sprintf("Completed %q", item.Title),
			map[string]any{"courseId": enrollment.CourseID, "lessonId": lesson.ID},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to award content reward: %w", err)
		}
		result.RewardAwarded = awarded
		if awarded {
			result.RewardAmount = contentCompletionReward
		}
		progress.RewardPaid = true
	}

	if err := s.progressRepo.Upsert(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to upsert content progress: %w", err)
	}

	if firstCompletion {
		requiredTotal, err := s.catalogRepo.CountRequiredContentForLesson(ctx, lesson.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count required content: %w", err)
		}
		completed, err := s.progressRepo.CountCompletedRequiredForLesson(ctx, enrollment.ID, lesson.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count completed content: %w", err)
		}
		result.ReadyForNextStep = completed >= requiredTotal

		// A failed downstream evaluation must not unwind the recorded
		// progress or the paid reward; it is logged and surfaced as
		// "lesson not complete yet".
		evaluation, err := s.lessonEval.EvaluateLesson(ctx, enrollment, lesson)
		if err != nil {
			s.logger.Error("failed to evaluate lesson completion",
				zap.Int("enrollment_id", enrollment.ID),
				zap.Int("lesson_id", lesson.ID),
				zap.Error(err),
			)
		} else {
			result.LessonComplete = evaluation.NewlyComplete
		}
	}

	return result, nil
}
