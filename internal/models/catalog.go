package models

// ContentKind represents the kind of a content item within a lesson
type ContentKind string

const (
	ContentKindTheory  ContentKind = "theory"
	ContentKindExample ContentKind = "example"
	ContentKindOther   ContentKind = "other"
)

// Rewardable reports whether completing content of this kind pays XP
func (k ContentKind) Rewardable() bool {
	return k == ContentKindTheory || k == ContentKindExample
}

// Course represents a course in the catalog
type Course struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Unit represents a group of lessons inside a course
type Unit struct {
	ID       int    `json:"id"`
	CourseID int    `json:"courseId"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

// Lesson represents a lesson inside a unit
type Lesson struct {
	ID        int    `json:"id"`
	UnitID    int    `json:"unitId"`
	CourseID  int    `json:"courseId"`
	Title     string `json:"title"`
	GroupName string `json:"groupName,omitempty"`
	Order     int    `json:"order"`
}

// ContentItem represents a single watchable or readable unit within a lesson
type ContentItem struct {
	ID       int         `json:"id"`
	LessonID int         `json:"lessonId"`
	Title    string      `json:"title"`
	Kind     ContentKind `json:"kind"`
	Required bool        `json:"required"`
	Order    int         `json:"order"`
}
