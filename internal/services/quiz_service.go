package services

import (
	"context"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// QuizAttemptRepository defines methods for quiz attempt data access
type QuizAttemptRepository interface {
	// Create inserts a new quiz attempt; its ID is set on success
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	// CountByEnrollmentAndLesson counts attempts for a lesson within an
	// enrollment
	CountByEnrollmentAndLesson(ctx context.Context, enrollmentID, lessonID int) (int, error)
	// GetBestAttempt retrieves the attempt with the highest score ratio for
	// a lesson within an enrollment, or (nil, nil) when none exists
	GetBestAttempt(ctx context.Context, enrollmentID, lessonID int) (*models.QuizAttempt, error)
}

type quizService struct {
	enrollmentRepo EnrollmentRepository
	catalogRepo    CatalogRepository
	attemptRepo    QuizAttemptRepository
	ledger         RewardAwarder
	lessonEval     LessonEvaluator
	logger         *zap.Logger
}

// NewQuizService creates a new quiz service
func NewQuizService(
	enrollmentRepo EnrollmentRepository,
	catalogRepo CatalogRepository,
	attemptRepo QuizAttemptRepository,
	ledger RewardAwarder,
	lessonEval LessonEvaluator,
	logger *zap.Logger,
) *quizService {
	return &quizService{
		enrollmentRepo: enrollmentRepo,
		catalogRepo:    catalogRepo,
		attemptRepo:    attemptRepo,
		ledger:         ledger,
		lessonEval:     lessonEval,
		logger:         logger,
	}
}

// SubmitAttempt records a quiz attempt, classifies it against the pass
// threshold and the enrollment's attempt history, pays the first-attempt
// reward and re-evaluates the owning lesson.
func (s *quizService) SubmitAttempt(ctx context.Context, userID int, req *models.SubmitQuizRequest) (*models.SubmitQuizResult, error) {
	if req.Total <= 0 {
		return nil, fmt.Errorf("quiz total must be positive")
	}
	if req.Score < 0 || req.Score > req.Total {
		return nil, fmt.Errorf("quiz score must be between 0 and total")
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotEnrolled, err)
	}

	lesson, err := s.catalogRepo.GetLesson(ctx, req.LessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.CourseID != enrollment.CourseID {
		return nil, fmt.Errorf("lesson not found")
	}

	// Retry classification looks only at attempts that existed before this
	// submission.
	priorAttempts, err := s.attemptRepo.CountByEnrollmentAndLesson(ctx, enrollment.ID, lesson.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count prior attempts: %w", err)
	}
	isRetry := priorAttempts > 0

	passed := QuizPassed(req.Score, req.Total)
	rewardAmount := QuizReward(req.Score, req.Total, isRetry)

	attempt := &models.QuizAttempt{
		EnrollmentID: enrollment.ID,
		LessonID:     lesson.ID,
		Score:        req.Score,
		Total:        req.Total,
		EarnedPoints: rewardAmount,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create quiz attempt: %w", err)
	}

	result := &models.SubmitQuizResult{
		AttemptID: attempt.ID,
		Passed:    passed,
		IsRetry:   isRetry,
	}

	if rewardAmount > 0 {
		// The reference is lesson-scoped, not attempt-scoped: two racing
		// first submissions both classify as non-retries, and the ledger key
		// must collapse them into one payout.
		awarded, err := s.ledger.Award(ctx, userID, rewardAmount,
			models.RewardCategoryQuizComplete,
			fmt.Sprintf("%d-%d", enrollment.ID, lesson.ID),
			fmt.Sprintf("Quiz for %q: %d/%d", lesson.Title, req.Score, req.Total),
			map[string]any{"courseId": enrollment.CourseID, "lessonId": lesson.ID, "score": req.Score, "total": req.Total},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to award quiz reward: %w", err)
		}
		result.RewardAwarded = awarded
		if awarded {
			result.RewardAmount = rewardAmount
		}
	}

	if passed {
		evaluation, err := s.lessonEval.EvaluateLesson(ctx, enrollment, lesson)
		if err != nil {
			s.logger.Error("failed to evaluate lesson completion",
				zap.Int("enrollment_id", enrollment.ID),
				zap.Int("lesson_id", lesson.ID),
				zap.Error(err),
			)
		} else {
			result.LessonComplete = evaluation.NewlyComplete
			result.UnitRewardAwarded = evaluation.UnitRewardAwarded
		}
	}

	return result, nil
}
