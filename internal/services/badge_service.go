package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// BadgeRepository defines methods for badge catalog and unlock data access
type BadgeRepository interface {
	// GetAll retrieves the full badge catalog
	GetAll(ctx context.Context) ([]models.Badge, error)
	// GetUserBadges retrieves all badge records for a user
	GetUserBadges(ctx context.Context, userID int) ([]models.UserBadge, error)
	// Unlock records a badge unlock for a user
	//
	// Returns true only when this call performed the unlock; a badge already
	// unlocked earlier returns false without error.
	Unlock(ctx context.Context, userID, badgeID, progress int) (bool, error)
	// UpsertProgress stores the progress snapshot for a locked badge
	UpsertProgress(ctx context.Context, userID, badgeID, progress int) error
}

// StatsRepository defines methods for the learner-wide aggregates badge
// requirements are evaluated against
type StatsRepository interface {
	// CountCompletedCourses counts the courses a user has fully completed
	CountCompletedCourses(ctx context.Context, userID int) (int, error)
	// CountCompletedCoursesByCategory counts completed courses in a category
	CountCompletedCoursesByCategory(ctx context.Context, userID int, category string) (int, error)
	// CountCompletedLessons counts completed lessons across all enrollments
	CountCompletedLessons(ctx context.Context, userID int) (int, error)
	// CountQuizAttempts counts all quiz attempts of a user
	CountQuizAttempts(ctx context.Context, userID int) (int, error)
	// CountPerfectQuizAttempts counts attempts with a full score
	CountPerfectQuizAttempts(ctx context.Context, userID int) (int, error)
	// CountUnlockedBadges counts badges a user has unlocked
	CountUnlockedBadges(ctx context.Context, userID int) (int, error)
}

// BalanceReader exposes the current XP balance of a user
type BalanceReader interface {
	// Balance returns the user's XP balance
	Balance(ctx context.Context, userID int) (int, error)
}

// StreakReader exposes the stored streak state of a user
type StreakReader interface {
	// Get retrieves the streak state, (nil, nil) when the user has none
	Get(ctx context.Context, userID int) (*models.StreakState, error)
}

// badgeService evaluates badge requirements against recomputed aggregates.
// A refresh unlocks exactly the badges that qualify now and were not
// unlocked before; unlocks are monotonic and their bonuses go through the
// reward ledger.
type badgeService struct {
	badgeRepo BadgeRepository
	statsRepo StatsRepository
	balances  BalanceReader
	streaks   StreakReader
	rewards   RewardAwarder
	logger    *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(
	badgeRepo BadgeRepository,
	statsRepo StatsRepository,
	balances BalanceReader,
	streaks StreakReader,
	rewards RewardAwarder,
	logger *zap.Logger,
) *badgeService {
	return &badgeService{
		badgeRepo: badgeRepo,
		statsRepo: statsRepo,
		balances:  balances,
		streaks:   streaks,
		rewards:   rewards,
		logger:    logger,
	}
}

// CalculateProgress computes the user's current value against a badge
// requirement. The requirement type set is closed; an unknown type is an
// error rather than a silent zero.
func (s *badgeService) CalculateProgress(ctx context.Context, userID int, badge *models.Badge) (*models.BadgeProgress, error) {
	var current int
	var err error

	switch badge.RequirementType {
	case models.BadgeRequirementCourseCount:
		current, err = s.statsRepo.CountCompletedCourses(ctx, userID)
	case models.BadgeRequirementLessonCount:
		current, err = s.statsRepo.CountCompletedLessons(ctx, userID)
	case models.BadgeRequirementQuizPerfectCount:
		current, err = s.statsRepo.CountPerfectQuizAttempts(ctx, userID)
	case models.BadgeRequirementQuizTotalCount:
		current, err = s.statsRepo.CountQuizAttempts(ctx, userID)
	case models.BadgeRequirementStreakDays:
		current, err = s.currentStreak(ctx, userID, false)
	case models.BadgeRequirementStreakBest:
		current, err = s.currentStreak(ctx, userID, true)
	case models.BadgeRequirementTotalXP:
		current, err = s.balances.Balance(ctx, userID)
	case models.BadgeRequirementBadgeCount:
		current, err = s.statsRepo.CountUnlockedBadges(ctx, userID)
	case models.BadgeRequirementCategoryCourseCount:
		current, err = s.statsRepo.CountCompletedCoursesByCategory(ctx, userID, badge.Category)
	default:
		return nil, fmt.Errorf("unknown badge requirement type: %s", badge.RequirementType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to calculate badge progress: %w", err)
	}

	return &models.BadgeProgress{
		Current: current,
		Target:  badge.RequirementValue,
	}, nil
}

// GetNewlyQualified returns the badges the user qualifies for right now and
// has not unlocked yet, refreshing the stored progress snapshots of the
// still-locked badges along the way
func (s *badgeService) GetNewlyQualified(ctx context.Context, userID int) ([]models.Badge, error) {
	badges, err := s.badgeRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	unlocked, err := s.unlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var qualified []models.Badge
	for _, badge := range badges {
		if unlocked[badge.ID] {
			continue
		}

		progress, err := s.CalculateProgress(ctx, userID, &badge)
		if err != nil {
			return nil, err
		}

		if progress.Current >= progress.Target {
			qualified = append(qualified, badge)
			continue
		}

		if err := s.badgeRepo.UpsertProgress(ctx, userID, badge.ID, progress.Current); err != nil {
			s.logger.Warn("failed to store badge progress",
				zap.Int("user_id", userID),
				zap.Int("badge_id", badge.ID),
				zap.Error(err),
			)
		}
	}

	return qualified, nil
}

// Refresh unlocks every badge the user newly qualifies for and pays the
// attached bonuses. Safe to call repeatedly: unlocks are write-once and the
// ledger dedupes bonuses even if an unlock and its bonus got split by a
// crash.
func (s *badgeService) Refresh(ctx context.Context, userID int) (*models.RefreshBadgesResponse, error) {
	qualified, err := s.GetNewlyQualified(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := &models.RefreshBadgesResponse{
		Unlocked: []models.BadgeUnlock{},
	}

	for _, badge := range qualified {
		unlockedNow, err := s.badgeRepo.Unlock(ctx, userID, badge.ID, badge.RequirementValue)
		if err != nil {
			s.logger.Error("failed to unlock badge",
				zap.Int("user_id", userID),
				zap.Int("badge_id", badge.ID),
				zap.Error(err),
			)
			continue
		}
		if !unlockedNow {
			continue
		}

		unlock := models.BadgeUnlock{Badge: badge}

		if badge.Bonus > 0 {
			awarded, err := s.rewards.Award(ctx,
				userID,
				badge.Bonus,
				models.RewardCategoryBadgeUnlock,
				strconv.Itoa(badge.ID),
				fmt.Sprintf("Unlocked badge %q", badge.Title),
				map[string]any{"badge_slug": badge.Slug},
			)
			if err != nil {
				s.logger.Error("failed to award badge bonus",
					zap.Int("user_id", userID),
					zap.Int("badge_id", badge.ID),
					zap.Error(err),
				)
			} else if awarded {
				unlock.BonusAwarded = true
				unlock.BonusAmount = badge.Bonus
				response.TotalBonus += badge.Bonus
			}
		}

		response.Unlocked = append(response.Unlocked, unlock)
	}

	return response, nil
}

// ListBadges returns the full catalog with the user's progress and unlock
// state per badge
func (s *badgeService) ListBadges(ctx context.Context, userID int) ([]models.BadgeListItem, error) {
	badges, err := s.badgeRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	userBadges, err := s.badgeRepo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	records := make(map[int]models.UserBadge, len(userBadges))
	for _, ub := range userBadges {
		records[ub.BadgeID] = ub
	}

	items := make([]models.BadgeListItem, 0, len(badges))
	for _, badge := range badges {
		item := models.BadgeListItem{Badge: badge}

		if record, ok := records[badge.ID]; ok && record.UnlockedAt != nil {
			item.UnlockedAt = record.UnlockedAt
			item.Progress = models.BadgeProgress{
				Current: badge.RequirementValue,
				Target:  badge.RequirementValue,
			}
		} else {
			progress, err := s.CalculateProgress(ctx, userID, &badge)
			if err != nil {
				return nil, err
			}
			item.Progress = *progress
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *badgeService) unlockedSet(ctx context.Context, userID int) (map[int]bool, error) {
	userBadges, err := s.badgeRepo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	unlocked := make(map[int]bool, len(userBadges))
	for _, ub := range userBadges {
		if ub.UnlockedAt != nil {
			unlocked[ub.BadgeID] = true
		}
	}

	return unlocked, nil
}

func (s *badgeService) currentStreak(ctx context.Context, userID int, best bool) (int, error) {
	state, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return 0, nil
	}
	if best {
		return state.LongestStreak, nil
	}
	return state.CurrentStreak, nil
}
