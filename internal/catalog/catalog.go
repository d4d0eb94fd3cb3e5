// Package catalog manages courses, their lessons, and the enrollment link
// between users and courses.
//
// Enrollment and deletion touch the users, courses and progress collections
// together. Both run inside one store transaction so the cross-record
// invariants hold after every call:
//
//   - a user's enrolledCourses contains a course id iff the course's
//     enrolledStudents contains the user id;
//   - each enrolled (user, course) pair has exactly one Progress record;
//   - no user, progress record or session refers to a deleted course.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/identity"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

type Catalog struct {
	store  *store.Store
	ids    domain.IDGenerator
	clock  domain.Clock
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithIDGenerator(g domain.IDGenerator) Option { return func(c *Catalog) { c.ids = g } }
func WithClock(clk domain.Clock) Option           { return func(c *Catalog) { c.clock = clk } }
func WithLogger(l *slog.Logger) Option            { return func(c *Catalog) { c.logger = l } }

func New(st *store.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  st,
		ids:    domain.UUIDv7Generator{},
		clock:  domain.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Draft is the instructor-editable part of a course. Draft files are decoded
// through the JSON field names whatever their format.
type Draft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Level       domain.Level    `json:"level"`
	Thumbnail   string          `json:"thumbnail"`
	Lessons     []domain.Lesson `json:"lessons"`
}

// Enrollment is the result of enrolling a user in a course.
type Enrollment struct {
	User     domain.User     `json:"user"`
	Course   domain.Course   `json:"course"`
	Progress domain.Progress `json:"progress"`
}

func (c *Catalog) List(ctx context.Context) ([]domain.Course, error) {
	return store.List[domain.Course](ctx, c.store, store.Courses)
}

// Get returns the course with the given id or domain.ErrMissingCourse.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Course, error) {
	return Lookup(ctx, c.store, id)
}

// Save validates course, renumbers its lessons 1..N and upserts it by id.
func (c *Catalog) Save(ctx context.Context, course domain.Course) error {
	normalize(&course)
	if err := domain.Validate(course); err != nil {
		return err
	}
	return c.store.Update(ctx, func(tx *store.Tx) error {
		return PutCourse(ctx, tx, course)
	})
}

// Create builds a new course owned by instructor from d.
func (c *Catalog) Create(ctx context.Context, instructor domain.User, d Draft) (domain.Course, error) {
	if !instructor.IsInstructor() {
		return domain.Course{}, domain.ErrNotInstructor
	}
	course := domain.Course{
		ID:               c.ids.Generate(),
		Instructor:       instructor.ID,
		InstructorName:   instructor.Name,
		EnrolledStudents: []string{},
		CreatedAt:        c.clock.Now(),
	}
	c.apply(&course, d)
	if err := c.Save(ctx, course); err != nil {
		return domain.Course{}, err
	}
	c.logger.Info("course created", "course_id", course.ID, "instructor", instructor.ID, "lessons", len(course.Lessons))
	return c.Get(ctx, course.ID)
}

// Edit replaces the editable fields of a course owned by instructor. The
// id, createdAt and enrolled students are kept; instructorName is refreshed
// from instructor.
func (c *Catalog) Edit(ctx context.Context, instructor domain.User, courseID string, d Draft) (domain.Course, error) {
	course, err := c.Get(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if err := RequireOwner(course, instructor); err != nil {
		return domain.Course{}, err
	}
	course.InstructorName = instructor.Name
	c.apply(&course, d)
	if err := c.Save(ctx, course); err != nil {
		return domain.Course{}, err
	}
	return c.Get(ctx, course.ID)
}

// Delete removes a course together with every reference to it: progress
// records for the course and the id in each user's enrolledCourses.
// Deleting an unknown id is not an error.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	var pruned, detached int
	err := c.store.Update(ctx, func(tx *store.Tx) error {
		courses, err := store.List[domain.Course](ctx, tx, store.Courses)
		if err != nil {
			return err
		}
		courses = slices.DeleteFunc(courses, func(x domain.Course) bool { return x.ID == id })
		if err := store.Replace(ctx, tx, store.Courses, courses); err != nil {
			return err
		}

		progress, err := store.List[domain.Progress](ctx, tx, store.Progress)
		if err != nil {
			return err
		}
		n := len(progress)
		progress = slices.DeleteFunc(progress, func(p domain.Progress) bool { return p.CourseID == id })
		pruned = n - len(progress)
		if err := store.Replace(ctx, tx, store.Progress, progress); err != nil {
			return err
		}

		users, err := store.List[domain.User](ctx, tx, store.Users)
		if err != nil {
			return err
		}
		for i := range users {
			if !users[i].IsEnrolled(id) {
				continue
			}
			users[i].EnrolledCourses = slices.DeleteFunc(users[i].EnrolledCourses, func(cid string) bool { return cid == id })
			detached++
			if err := identity.SyncSession(ctx, tx, users[i]); err != nil {
				return err
			}
		}
		return store.Replace(ctx, tx, store.Users, users)
	})
	if err != nil {
		return fmt.Errorf("delete course %q: %w", id, err)
	}
	c.logger.Info("course deleted", "course_id", id, "progress_pruned", pruned, "users_detached", detached)
	return nil
}

// Enroll links user and course. Both are re-read by id inside one
// transaction, so stale copies held by the caller cannot overwrite newer
// state. Enrolling twice is a no-op: each side holds the other's id once and
// the pair has exactly one Progress record.
func (c *Catalog) Enroll(ctx context.Context, user domain.User, course domain.Course) (Enrollment, error) {
	var out Enrollment
	err := c.store.Update(ctx, func(tx *store.Tx) error {
		usr, err := identity.Lookup(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		crs, err := Lookup(ctx, tx, course.ID)
		if err != nil {
			return err
		}

		if !usr.IsEnrolled(crs.ID) {
			usr.EnrolledCourses = append(usr.EnrolledCourses, crs.ID)
			if err := identity.PutUser(ctx, tx, usr); err != nil {
				return err
			}
			if err := identity.SyncSession(ctx, tx, usr); err != nil {
				return err
			}
		}

		if !crs.IsEnrolled(usr.ID) {
			crs.EnrolledStudents = append(crs.EnrolledStudents, usr.ID)
			if err := PutCourse(ctx, tx, crs); err != nil {
				return err
			}
		}

		key := domain.ProgressKey{UserID: usr.ID, CourseID: crs.ID}
		prog, ok, err := store.Find(ctx, tx, store.Progress, func(p domain.Progress) bool { return p.Key() == key })
		if err != nil {
			return err
		}
		if !ok {
			prog = domain.Progress{
				UserID:           usr.ID,
				CourseID:         crs.ID,
				CompletedLessons: []string{},
				LastAccessed:     c.clock.Now(),
			}
			if err := store.Upsert(ctx, tx, store.Progress, prog, func(p domain.Progress) bool { return p.Key() == key }); err != nil {
				return err
			}
		}

		out = Enrollment{User: usr, Course: crs, Progress: prog}
		return nil
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("enroll: %w", err)
	}
	c.logger.Debug("user enrolled", "user_id", out.User.ID, "course_id", out.Course.ID)
	return out, nil
}

// ByInstructor returns the courses owned by instructorID.
func (c *Catalog) ByInstructor(ctx context.Context, instructorID string) ([]domain.Course, error) {
	return c.filter(ctx, func(x domain.Course) bool { return x.Instructor == instructorID })
}

// EnrolledFor returns the courses in user's enrolled list, in catalog order.
func (c *Catalog) EnrolledFor(ctx context.Context, user domain.User) ([]domain.Course, error) {
	return c.filter(ctx, func(x domain.Course) bool { return user.IsEnrolled(x.ID) })
}

// AvailableFor returns the courses user has not enrolled in.
func (c *Catalog) AvailableFor(ctx context.Context, user domain.User) ([]domain.Course, error) {
	return c.filter(ctx, func(x domain.Course) bool { return !user.IsEnrolled(x.ID) })
}

// TotalStudents sums enrolled students across courses.
func TotalStudents(courses []domain.Course) int {
	var n int
	for _, c := range courses {
		n += len(c.EnrolledStudents)
	}
	return n
}

// RequireOwner fails unless user is the instructor who owns course.
func RequireOwner(course domain.Course, user domain.User) error {
	if !user.IsInstructor() {
		return domain.ErrNotInstructor
	}
	if course.Instructor != user.ID {
		return domain.ErrNotOwner
	}
	return nil
}

func (c *Catalog) filter(ctx context.Context, keep func(domain.Course) bool) ([]domain.Course, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Course, 0, len(all))
	for _, x := range all {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out, nil
}

// apply copies d onto course and gives new lessons an id.
func (c *Catalog) apply(course *domain.Course, d Draft) {
	course.Title = d.Title
	course.Description = d.Description
	course.Category = d.Category
	course.Level = d.Level
	course.Thumbnail = d.Thumbnail
	course.Lessons = slices.Clone(d.Lessons)
	for i := range course.Lessons {
		if course.Lessons[i].ID == "" {
			course.Lessons[i].ID = c.ids.Generate()
		}
	}
}

func normalize(course *domain.Course) {
	course.Title = strings.TrimSpace(course.Title)
	course.Level = domain.Level(strings.ToLower(strings.TrimSpace(string(course.Level))))
	if course.Lessons == nil {
		course.Lessons = []domain.Lesson{}
	}
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = []string{}
	}
	course.Renumber()
}
