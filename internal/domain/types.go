package domain

import (
	"slices"
	"time"
)

// Role is the capability a user registered with.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Level is the advertised difficulty of a course.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// User is an identity record. Email is unique among users ignoring case and
// surrounding whitespace; the directory enforces that at registration time.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	EnrolledCourses []string  `json:"enrolledCourses"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (u User) IsInstructor() bool { return u.Role == RoleInstructor }

// IsEnrolled reports whether courseID is in the user's enrolled list.
func (u User) IsEnrolled(courseID string) bool {
	return slices.Contains(u.EnrolledCourses, courseID)
}

// Lesson is owned by exactly one Course. Order is its 1-based position.
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	VideoURL string `json:"videoUrl,omitempty" validate:"omitempty,url"`
	Duration int    `json:"duration" validate:"gte=0"`
	Order    int    `json:"order"`
}

// Course is a unit of content authored by one instructor. Lesson ids are
// unique within a course.
//
// InstructorName is a snapshot of the owner's name taken when the course was
// created or last edited. Renaming the instructor does not rewrite it.
type Course struct {
	ID               string    `json:"id"`
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Level            Level     `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Thumbnail        string    `json:"thumbnail" validate:"omitempty,url"`
	Instructor       string    `json:"instructor" validate:"required"`
	InstructorName   string    `json:"instructorName"`
	Lessons          []Lesson  `json:"lessons" validate:"unique=ID,dive"`
	EnrolledStudents []string  `json:"enrolledStudents"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Renumber sets every lesson's Order to its position, starting at 1.
func (c *Course) Renumber() {
	for i := range c.Lessons {
		c.Lessons[i].Order = i + 1
	}
}

// AddLesson appends l at the end of the course and renumbers.
func (c *Course) AddLesson(l Lesson) {
	c.Lessons = append(c.Lessons, l)
	c.Renumber()
}

// RemoveLesson drops the lesson with the given id and renumbers the rest.
// It reports whether a lesson was removed.
func (c *Course) RemoveLesson(id string) bool {
	n := len(c.Lessons)
	c.Lessons = slices.DeleteFunc(c.Lessons, func(l Lesson) bool { return l.ID == id })
	c.Renumber()
	return len(c.Lessons) != n
}

func (c Course) HasLesson(id string) bool {
	return slices.ContainsFunc(c.Lessons, func(l Lesson) bool { return l.ID == id })
}

func (c Course) IsEnrolled(userID string) bool {
	return slices.Contains(c.EnrolledStudents, userID)
}

// TotalDuration is the sum of lesson durations in minutes.
func (c Course) TotalDuration() int {
	var total int
	for _, l := range c.Lessons {
		total += l.Duration
	}
	return total
}

// Progress is the completion state of one user in one course.
// There is at most one Progress per (UserID, CourseID).
type Progress struct {
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId"`
	CompletedLessons []string  `json:"completedLessons"`
	LastAccessed     time.Time `json:"lastAccessed"`
}

// Key identifies the (user, course) pair a Progress belongs to.
func (p Progress) Key() ProgressKey { return ProgressKey{UserID: p.UserID, CourseID: p.CourseID} }

func (p Progress) IsCompleted(lessonID string) bool {
	return slices.Contains(p.CompletedLessons, lessonID)
}

type ProgressKey struct {
	UserID   string
	CourseID string
}

// Credential holds the password hash for a user. It lives in its own
// collection so User documents never carry secret material.
type Credential struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
}
