package services

import "errors"

// ErrNotEnrolled is returned when the user has no enrollment for the target
// course. Handlers map it to 403; nothing is mutated when it is returned.
var ErrNotEnrolled = errors.New("user not enrolled in course")
