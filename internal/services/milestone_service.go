package services

import (
	"context"
	"fmt"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// CompletedCourseCounter counts fully completed courses for a learner
type CompletedCourseCounter interface {
	// CountCompletedCourses counts enrollments whose every lesson is complete
	CountCompletedCourses(ctx context.Context, userID int) (int, error)
}

// BadgeRefresher re-evaluates badge qualification for a user
type BadgeRefresher interface {
	// Refresh unlocks every badge the user newly qualifies for
	Refresh(ctx context.Context, userID int) (*models.RefreshBadgesResponse, error)
}

// milestoneService pays course-progress milestones and learner-wide course
// achievements. Evaluation is recompute-and-award: every threshold at or
// below the current progress is attempted on every call and the ledger
// filters out the ones already paid.
type milestoneService struct {
	rewards RewardAwarder
	stats   CompletedCourseCounter
	badges  BadgeRefresher
	logger  *zap.Logger
}

// NewMilestoneService creates a new milestone service
func NewMilestoneService(rewards RewardAwarder, stats CompletedCourseCounter, badges BadgeRefresher, logger *zap.Logger) *milestoneService {
	return &milestoneService{
		rewards: rewards,
		stats:   stats,
		badges:  badges,
		logger:  logger,
	}
}

// Evaluate checks every course milestone against the given progress
// percentage and, at full completion, the course badge bonus and the
// learner's course-count achievements. Individual award failures are logged
// and skipped so one bad write cannot block the remaining milestones.
func (s *milestoneService) Evaluate(ctx context.Context, enrollment *models.Enrollment, progressPercent int) ([]models.MilestoneResult, error) {
	results := make([]models.MilestoneResult, 0, len(courseMilestones))

	for _, milestone := range courseMilestones {
		if progressPercent < milestone.Threshold {
			continue
		}

		awarded, err := s.rewards.Award(ctx,
			enrollment.UserID,
			milestone.Reward,
			models.RewardCategoryCourseMilestone,
			fmt.Sprintf("%d-%d", enrollment.ID, milestone.Threshold),
			fmt.Sprintf("Reached %d%% of course", milestone.Threshold),
			map[string]any{"course_id": enrollment.CourseID, "threshold": milestone.Threshold},
		)
		if err != nil {
			s.logger.Error("failed to award course milestone",
				zap.Int("enrollment_id", enrollment.ID),
				zap.Int("threshold", milestone.Threshold),
				zap.Error(err),
			)
			continue
		}

		results = append(results, models.MilestoneResult{
			Threshold: milestone.Threshold,
			Awarded:   awarded,
			Amount:    milestone.Reward,
			Label:     fmt.Sprintf("course-progress-%d", milestone.Threshold),
		})
	}

	if progressPercent >= 100 {
		s.evaluateCourseCompletion(ctx, enrollment)
	}

	return results, nil
}

// evaluateCourseCompletion handles the awards that only exist at full course
// completion: the course badge bonus, the learner-wide course-count
// achievements, and a badge refresh
func (s *milestoneService) evaluateCourseCompletion(ctx context.Context, enrollment *models.Enrollment) {
	if _, err := s.rewards.Award(ctx,
		enrollment.UserID,
		courseBadgeBonus,
		models.RewardCategoryCourseAchievement,
		fmt.Sprintf("course-badge-%d", enrollment.CourseID),
		"Completed the course",
		map[string]any{"course_id": enrollment.CourseID},
	); err != nil {
		s.logger.Error("failed to award course badge bonus",
			zap.Int("enrollment_id", enrollment.ID),
			zap.Error(err),
		)
	}

	completed, err := s.stats.CountCompletedCourses(ctx, enrollment.UserID)
	if err != nil {
		s.logger.Error("failed to count completed courses",
			zap.Int("user_id", enrollment.UserID),
			zap.Error(err),
		)
	} else {
		for _, achievement := range courseCountAchievements {
			if completed < achievement.Count {
				continue
			}

			if _, err := s.rewards.Award(ctx,
				enrollment.UserID,
				achievement.Reward,
				models.RewardCategoryCourseAchievement,
				fmt.Sprintf("courses-completed-%d", achievement.Count),
				fmt.Sprintf("Completed %d courses", achievement.Count),
				nil,
			); err != nil {
				s.logger.Error("failed to award course-count achievement",
					zap.Int("user_id", enrollment.UserID),
					zap.Int("count", achievement.Count),
					zap.Error(err),
				)
			}
		}
	}

	if _, err := s.badges.Refresh(ctx, enrollment.UserID); err != nil {
		s.logger.Error("failed to refresh badges after course completion",
			zap.Int("user_id", enrollment.UserID),
			zap.Error(err),
		)
	}
}
