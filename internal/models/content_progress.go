package models

import "time"

// ContentProgress represents a user's progress on a single content item.
// There is exactly one record per (enrollment, content item); the completion
// flag is monotonic and the completion timestamp is written once.
type ContentProgress struct {
	ID           int        `json:"id"`
	EnrollmentID int        `json:"enrollmentId"`
	ContentID    int        `json:"contentId"`
	LastPosition int        `json:"lastPosition"`
	Completed    bool       `json:"completed"`
	RewardPaid   bool       `json:"rewardPaid"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// RecordProgressRequest represents a request to record content progress
type RecordProgressRequest struct {
	CourseID     int  `json:"courseId"`
	ContentID    int  `json:"contentId"`
	LastPosition int  `json:"lastPosition"`
	IsCompleted  bool `json:"isCompleted"`
}

// RecordProgressResult represents the outcome of recording content progress
type RecordProgressResult struct {
	RewardAwarded    bool `json:"rewardAwarded"`
	RewardAmount     int  `json:"rewardAmount"`
	IsRewatch        bool `json:"isRewatch"`
	LessonComplete   bool `json:"lessonComplete"`
	ReadyForNextStep bool `json:"readyForNextStep"`
}
