package models

import "time"

// Enrollment represents a user's membership in a course. All progress records
// for that course hang off this record. Unit and group claims are tracked in
// separate claim tables with unique keys, which gives the claimed-id sets
// their append-only, add-if-absent semantics.
type Enrollment struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	CourseID  int       `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}
