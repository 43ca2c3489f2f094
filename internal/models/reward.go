package models

import "time"

// RewardCategory identifies the class of event that produced a reward.
// Together with the reference it forms the idempotency key for a transaction.
type RewardCategory string

const (
	RewardCategoryContentComplete    RewardCategory = "content-complete"
	RewardCategoryQuizComplete       RewardCategory = "quiz-complete"
	RewardCategoryUnitComplete       RewardCategory = "unit-complete"
	RewardCategoryUnitGroupMilestone RewardCategory = "unit-group-milestone"
	RewardCategoryCourseMilestone    RewardCategory = "course-milestone"
	RewardCategoryCourseAchievement  RewardCategory = "course-achievement"
	RewardCategoryBadgeUnlock        RewardCategory = "badge-unlock"
	RewardCategoryStreakMilestone    RewardCategory = "streak-milestone"
	RewardCategoryProfileComplete    RewardCategory = "profile-complete"
)

// RewardTransaction represents a single immutable entry in the reward ledger.
// No two transactions may share the same (user, category, reference) triple.
type RewardTransaction struct {
	ID          int            `json:"id"`
	UserID      int            `json:"userId"`
	Amount      int            `json:"amount"`
	Category    RewardCategory `json:"category"`
	Reference   string         `json:"reference"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// RewardHistoryResponse represents a paginated reward history page
type RewardHistoryResponse struct {
	Transactions []RewardTransaction `json:"transactions"`
	Total        int                 `json:"total"`
	Page         int                 `json:"page"`
	Count        int                 `json:"count"`
}

// BalanceResponse represents a user's current XP balance
type BalanceResponse struct {
	UserID  int `json:"userId"`
	Balance int `json:"balance"`
}
