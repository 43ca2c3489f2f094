package services

import (
	"context"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// UnitGroupClaimer converts satisfied unit/group completion conditions into
// rewards, guarded against repetition
type UnitGroupClaimer interface {
	// ClaimUnit claims the fixed unit reward when the unit is complete
	ClaimUnit(ctx context.Context, enrollment *models.Enrollment, unitID int) (*models.ClaimResult, error)
	// ClaimGroup claims the progressive group reward when every lesson
	// tagged with the group is complete
	ClaimGroup(ctx context.Context, enrollment *models.Enrollment, groupName string) (*models.ClaimResult, error)
}

// MilestoneEvaluator pays percentage and count based course milestones
type MilestoneEvaluator interface {
	// Evaluate checks every milestone threshold against the current course
	// progress percentage
	Evaluate(ctx context.Context, enrollment *models.Enrollment, progressPercent int) ([]models.MilestoneResult, error)
}

// StreakToucher registers one unit of qualifying daily activity
type StreakToucher interface {
	// Touch advances or resets the user's streak for today
	Touch(ctx context.Context, userID int) (*models.TouchStreakResult, error)
}

// lessonCompletionService derives lesson completion from content and quiz
// records. Both predicates are recomputed on every evaluation instead of
// trusting cached partial flags; only the completion row itself is stored,
// under a write-once guard.
type lessonCompletionService struct {
	enrollmentRepo EnrollmentRepository
	catalogRepo    CatalogRepository
	progressRepo   ContentProgressRepository
	attemptRepo    QuizAttemptRepository
	completionRepo LessonCompletionRepository
	claimer        UnitGroupClaimer
	milestones     MilestoneEvaluator
	streaks        StreakToucher
	logger         *zap.Logger
}

// NewLessonCompletionService creates a new lesson completion service
func NewLessonCompletionService(
	enrollmentRepo EnrollmentRepository,
	catalogRepo CatalogRepository,
	progressRepo ContentProgressRepository,
	attemptRepo QuizAttemptRepository,
	completionRepo LessonCompletionRepository,
	claimer UnitGroupClaimer,
	milestones MilestoneEvaluator,
	streaks StreakToucher,
	logger *zap.Logger,
) *lessonCompletionService {
	return &lessonCompletionService{
		enrollmentRepo: enrollmentRepo,
		catalogRepo:    catalogRepo,
		progressRepo:   progressRepo,
		attemptRepo:    attemptRepo,
		completionRepo: completionRepo,
		claimer:        claimer,
		milestones:     milestones,
		streaks:        streaks,
		logger:         logger,
	}
}

// EvaluateLesson recomputes the lesson's completion predicates and, on the
// first transition into complete, runs the downstream cascade: unit and
// group claims, course milestones, and the streak touch. Cascade stages are
// independent; a failing stage is logged and skipped without unwinding
// anything already committed.
func (s *lessonCompletionService) EvaluateLesson(ctx context.Context, enrollment *models.Enrollment, lesson *models.Lesson) (*LessonEvaluation, error) {
	contentComplete, err := s.contentComplete(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		return nil, err
	}
	if !contentComplete {
		return &LessonEvaluation{}, nil
	}

	quizPassed, err := s.quizPassed(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		return nil, err
	}
	if !quizPassed {
		return &LessonEvaluation{}, nil
	}

	newly, err := s.completionRepo.MarkComplete(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark lesson complete: %w", err)
	}
	if !newly {
		return &LessonEvaluation{}, nil
	}

	evaluation := &LessonEvaluation{NewlyComplete: true}

	unitClaim, err := s.claimer.ClaimUnit(ctx, enrollment, lesson.UnitID)
	if err != nil {
		s.logger.Error("failed to claim unit reward",
			zap.Int("enrollment_id", enrollment.ID),
			zap.Int("unit_id", lesson.UnitID),
			zap.Error(err),
		)
	} else {
		evaluation.UnitRewardAwarded = unitClaim.Success
	}

	if lesson.GroupName != "" {
		if _, err := s.claimer.ClaimGroup(ctx, enrollment, lesson.GroupName); err != nil {
			s.logger.Error("failed to claim group reward",
				zap.Int("enrollment_id", enrollment.ID),
				zap.String("group_name", lesson.GroupName),
				zap.Error(err),
			)
		}
	}

	percent, err := s.CourseProgressPercent(ctx, enrollment)
	if err != nil {
		s.logger.Error("failed to compute course progress",
			zap.Int("enrollment_id", enrollment.ID),
			zap.Error(err),
		)
	} else if _, err := s.milestones.Evaluate(ctx, enrollment, percent); err != nil {
		s.logger.Error("failed to evaluate milestones",
			zap.Int("enrollment_id", enrollment.ID),
			zap.Int("progress_percent", percent),
			zap.Error(err),
		)
	}

	if _, err := s.streaks.Touch(ctx, enrollment.UserID); err != nil {
		s.logger.Error("failed to touch streak",
			zap.Int("user_id", enrollment.UserID),
			zap.Error(err),
		)
	}

	return evaluation, nil
}

// CourseProgressPercent derives the enrollment's course progress from
// completed lessons over total lessons
func (s *lessonCompletionService) CourseProgressPercent(ctx context.Context, enrollment *models.Enrollment) (int, error) {
	total, err := s.catalogRepo.CountLessonsInCourse(ctx, enrollment.CourseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count course lessons: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	completed, err := s.completionRepo.CountByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return completed * 100 / total, nil
}

// CourseProgress reports the caller's lesson progress within a course
func (s *lessonCompletionService) CourseProgress(ctx context.Context, userID, courseID int) (*models.CourseProgressResponse, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}

	total, err := s.catalogRepo.CountLessonsInCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count course lessons: %w", err)
	}

	completed, err := s.completionRepo.CountByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	response := &models.CourseProgressResponse{
		CourseID:         courseID,
		CompletedLessons: completed,
		TotalLessons:     total,
	}
	if total > 0 {
		response.Percent = completed * 100 / total
	}

	return response, nil
}

// EvaluateMilestones resolves the caller's enrollment, derives the current
// course progress, and runs the milestone evaluator against it
func (s *lessonCompletionService) EvaluateMilestones(ctx context.Context, userID, courseID int) ([]models.MilestoneResult, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}

	percent, err := s.CourseProgressPercent(ctx, enrollment)
	if err != nil {
		return nil, err
	}

	return s.milestones.Evaluate(ctx, enrollment, percent)
}

// contentComplete holds when every required content item of the lesson is
// completed; a lesson without required content is vacuously content-complete
func (s *lessonCompletionService) contentComplete(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	required, err := s.catalogRepo.CountRequiredContentForLesson(ctx, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to count required content: %w", err)
	}
	if required == 0 {
		return true, nil
	}

	completed, err := s.progressRepo.CountCompletedRequiredForLesson(ctx, enrollmentID, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to count completed content: %w", err)
	}

	return completed >= required, nil
}

// quizPassed holds when the best attempt passes the threshold; a lesson
// without a quiz is vacuously quiz-passed
func (s *lessonCompletionService) quizPassed(ctx context.Context, enrollmentID, lessonID int) (bool, error) {
	hasQuiz, err := s.catalogRepo.LessonHasQuiz(ctx, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to check lesson quiz: %w", err)
	}
	if !hasQuiz {
		return true, nil
	}

	best, err := s.attemptRepo.GetBestAttempt(ctx, enrollmentID, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to get best attempt: %w", err)
	}
	if best == nil {
		return false, nil
	}

	return QuizPassed(best.Score, best.Total), nil
}
