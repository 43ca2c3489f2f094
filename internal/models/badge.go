package models

import "time"

// BadgeRequirementType identifies the aggregate a badge requirement is
// evaluated against. The set is closed; the qualification engine must handle
// every kind exhaustively.
type BadgeRequirementType string

const (
	BadgeRequirementCourseCount         BadgeRequirementType = "course-count"
	BadgeRequirementLessonCount         BadgeRequirementType = "lesson-count"
	BadgeRequirementQuizPerfectCount    BadgeRequirementType = "quiz-perfect-count"
	BadgeRequirementQuizTotalCount      BadgeRequirementType = "quiz-total-count"
	BadgeRequirementStreakDays          BadgeRequirementType = "streak-days"
	BadgeRequirementStreakBest          BadgeRequirementType = "streak-best"
	BadgeRequirementTotalXP             BadgeRequirementType = "total-xp"
	BadgeRequirementBadgeCount          BadgeRequirementType = "badge-count"
	BadgeRequirementCategoryCourseCount BadgeRequirementType = "category-course-count"
)

// BadgeRarity represents how rare a badge is
type BadgeRarity string

const (
	BadgeRarityCommon    BadgeRarity = "common"
	BadgeRarityRare      BadgeRarity = "rare"
	BadgeRarityEpic      BadgeRarity = "epic"
	BadgeRarityLegendary BadgeRarity = "legendary"
)

// Badge represents a static catalog entry describing one unlockable badge
type Badge struct {
	ID               int                  `json:"id"`
	Slug             string               `json:"slug"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	RequirementType  BadgeRequirementType `json:"requirementType"`
	RequirementValue int                  `json:"requirementValue"`
	// Category is only consulted for category-course-count requirements
	Category string      `json:"category,omitempty"`
	Bonus    int         `json:"bonus"`
	Rarity   BadgeRarity `json:"rarity"`
}

// UserBadge represents a user's progress toward (and unlock of) a badge.
// UnlockedAt is monotonic: once set it is never cleared.
type UserBadge struct {
	UserID     int        `json:"userId"`
	BadgeID    int        `json:"badgeId"`
	Progress   int        `json:"progress"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// BadgeProgress represents current progress against a badge requirement
type BadgeProgress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// BadgeUnlock represents a badge newly unlocked by a refresh
type BadgeUnlock struct {
	Badge        Badge `json:"badge"`
	BonusAwarded bool  `json:"bonusAwarded"`
	BonusAmount  int   `json:"bonusAmount"`
}

// RefreshBadgesResponse represents the outcome of a badge refresh
type RefreshBadgesResponse struct {
	Unlocked   []BadgeUnlock `json:"unlocked"`
	TotalBonus int           `json:"totalBonus"`
}

// BadgeListItem represents a badge together with the user's progress
type BadgeListItem struct {
	Badge      Badge         `json:"badge"`
	Progress   BadgeProgress `json:"progress"`
	UnlockedAt *time.Time    `json:"unlockedAt,omitempty"`
}
