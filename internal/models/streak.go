package models

import "time"

// StreakState represents a user's consecutive-day activity streak.
// LastActivityDate is a calendar date (midnight UTC), not a timestamp; the
// state mutates at most once per calendar day.
type StreakState struct {
	UserID           int       `json:"userId"`
	CurrentStreak    int       `json:"currentStreak"`
	LongestStreak    int       `json:"longestStreak"`
	LastActivityDate time.Time `json:"lastActivityDate"`
}

// TouchStreakResult represents the outcome of registering daily activity
type TouchStreakResult struct {
	CurrentStreak  int  `json:"currentStreak"`
	LongestStreak  int  `json:"longestStreak"`
	IsNewStreakDay bool `json:"isNewStreakDay"`
	BonusAwarded   bool `json:"bonusAwarded"`
	BonusAmount    int  `json:"bonusAmount"`
}
