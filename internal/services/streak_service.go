package services

import (
	"context"
	"fmt"
	"time"

	"github.com/coursehub/progress-service/internal/models"
	"go.uber.org/zap"
)

// StreakRepository defines methods for streak state data access
type StreakRepository interface {
	// Get retrieves the streak state for a user
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	//
	// Returns (nil, nil) when the user has no streak yet and an error if any.
	Get(ctx context.Context, userID int) (*models.StreakState, error)
	// Upsert creates or replaces the streak state for a user
	Upsert(ctx context.Context, state *models.StreakState) error
}

// streakService tracks consecutive-day activity. All comparisons are against
// calendar dates in UTC, never timestamps, so the state changes at most once
// per day no matter how many qualifying events arrive.
type streakService struct {
	repo    StreakRepository
	rewards RewardAwarder
	logger  *zap.Logger
	// now is replaceable in tests
	now func() time.Time
}

// NewStreakService creates a new streak service
func NewStreakService(repo StreakRepository, rewards RewardAwarder, logger *zap.Logger) *streakService {
	return &streakService{
		repo:    repo,
		rewards: rewards,
		logger:  logger,
		now:     time.Now,
	}
}

// Touch registers qualifying activity for today. Activity on the day after
// the last recorded one extends the streak, a gap of two or more days resets
// it to one, and repeated activity on the same day changes nothing. On a new
// streak day the milestone table is checked and a matching length pays a
// bonus.
func (s *streakService) Touch(ctx context.Context, userID int) (*models.TouchStreakResult, error) {
	today := dateOf(s.now())

	state, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}

	if state != nil && state.LastActivityDate.Equal(today) {
		return &models.TouchStreakResult{
			CurrentStreak:  state.CurrentStreak,
			LongestStreak:  state.LongestStreak,
			IsNewStreakDay: false,
		}, nil
	}

	streak := 1
	longest := 1
	if state != nil {
		if state.LastActivityDate.Equal(today.AddDate(0, 0, -1)) {
			streak = state.CurrentStreak + 1
		}
		longest = state.LongestStreak
	}
	if streak > longest {
		longest = streak
	}

	if err := s.repo.Upsert(ctx, &models.StreakState{
		UserID:           userID,
		CurrentStreak:    streak,
		LongestStreak:    longest,
		LastActivityDate: today,
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert streak state: %w", err)
	}

	result := &models.TouchStreakResult{
		CurrentStreak:  streak,
		LongestStreak:  longest,
		IsNewStreakDay: true,
	}

	bonus, ok := streakMilestones[streak]
	if !ok {
		return result, nil
	}

	// The reference carries the date the length was reached, so a streak
	// rebuilt after a reset pays the same milestone again while a same-day
	// retry of this call stays deduplicated.
	awarded, err := s.rewards.Award(ctx,
		userID,
		bonus,
		models.RewardCategoryStreakMilestone,
		fmt.Sprintf("streak-%d-%d-%s", userID, streak, today.Format("2006-01-02")),
		fmt.Sprintf("Kept a %d-day streak", streak),
		map[string]any{"streak": streak},
	)
	if err != nil {
		s.logger.Error("failed to award streak milestone",
			zap.Int("user_id", userID),
			zap.Int("streak", streak),
			zap.Error(err),
		)
		return result, nil
	}

	result.BonusAwarded = awarded
	if awarded {
		result.BonusAmount = bonus
	}

	return result, nil
}

// Get returns the user's streak state, zero-valued when no activity was ever
// recorded
func (s *streakService) Get(ctx context.Context, userID int) (*models.StreakState, error) {
	state, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}
	if state == nil {
		return &models.StreakState{UserID: userID}, nil
	}
	return state, nil
}

// dateOf truncates a timestamp to its UTC calendar date
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
