package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

type snapshot struct {
	users    []domain.User
	courses  []domain.Course
	progress []domain.Progress
	session  *domain.User
}

func load(ctx context.Context, r store.Reader) (*snapshot, error) {
	var s snapshot
	var err error
	if s.users, err = store.List[domain.User](ctx, r, store.Users); err != nil {
		return nil, err
	}
	if s.courses, err = store.List[domain.Course](ctx, r, store.Courses); err != nil {
		return nil, err
	}
	if s.progress, err = store.List[domain.Progress](ctx, r, store.Progress); err != nil {
		return nil, err
	}
	usr, ok, err := store.Load[domain.User](ctx, r, store.CurrentUserKey)
	if err != nil {
		return nil, err
	}
	if ok {
		s.session = &usr
	}
	return &s, nil
}

// CheckInvariants reports every cross-record rule the stored data breaks:
//
//   - enrollment is symmetric between users and courses, without duplicates;
//   - every enrolled pair has exactly one progress record, and every progress
//     record belongs to an enrolled pair;
//   - no record refers to a missing user or course;
//   - normalized emails are unique;
//   - lesson order is 1..N within each course;
//   - the session copy matches the stored user.
func CheckInvariants(ctx context.Context, r store.Reader) ([]string, error) {
	s, err := load(ctx, r)
	if err != nil {
		return nil, err
	}

	var out []string
	report := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }

	users := make(map[string]domain.User, len(s.users))
	emails := map[string]string{}
	for _, u := range s.users {
		users[u.ID] = u
		if e := domain.NormalizeEmail(u.Email); e != "" {
			if other, dup := emails[e]; dup {
				report("users %s and %s share email %s", other, u.ID, e)
			}
			emails[e] = u.ID
		}
	}
	courses := make(map[string]domain.Course, len(s.courses))
	for _, c := range s.courses {
		courses[c.ID] = c
		for i, l := range c.Lessons {
			if l.Order != i+1 {
				report("course %s lesson %s has order %d, want %d", c.ID, l.ID, l.Order, i+1)
			}
		}
	}

	pairs := map[domain.ProgressKey]int{}
	for _, p := range s.progress {
		pairs[p.Key()]++
	}

	for _, u := range s.users {
		if hasDuplicates(u.EnrolledCourses) {
			report("user %s lists a course twice: %v", u.ID, u.EnrolledCourses)
		}
		for _, cid := range u.EnrolledCourses {
			c, ok := courses[cid]
			switch {
			case !ok:
				report("user %s enrolled in missing course %s", u.ID, cid)
			case !c.IsEnrolled(u.ID):
				report("user %s lists course %s but the course does not list the user", u.ID, cid)
			}
			if n := pairs[domain.ProgressKey{UserID: u.ID, CourseID: cid}]; n != 1 {
				report("user %s in course %s has %d progress records", u.ID, cid, n)
			}
		}
	}

	for _, c := range s.courses {
		if hasDuplicates(c.EnrolledStudents) {
			report("course %s lists a student twice: %v", c.ID, c.EnrolledStudents)
		}
		for _, uid := range c.EnrolledStudents {
			u, ok := users[uid]
			switch {
			case !ok:
				report("course %s lists missing user %s", c.ID, uid)
			case !u.IsEnrolled(c.ID):
				report("course %s lists user %s but the user does not list the course", c.ID, uid)
			}
		}
	}

	for _, p := range s.progress {
		u, ok := users[p.UserID]
		if !ok {
			report("progress for missing user %s", p.UserID)
			continue
		}
		if _, ok := courses[p.CourseID]; !ok {
			report("progress for missing course %s", p.CourseID)
			continue
		}
		if !u.IsEnrolled(p.CourseID) {
			report("progress for user %s in course %s without enrollment", p.UserID, p.CourseID)
		}
	}

	if s.session != nil {
		stored, ok := users[s.session.ID]
		switch {
		case !ok:
			report("session holds missing user %s", s.session.ID)
		case !slices.Equal(stored.EnrolledCourses, s.session.EnrolledCourses) ||
			stored.Name != s.session.Name || stored.Email != s.session.Email:
			report("session copy of user %s is stale", s.session.ID)
		}
	}

	return out, nil
}

// Snapshot renders the stored data as a State.
func Snapshot(ctx context.Context, r store.Reader) (State, error) {
	s, err := load(ctx, r)
	if err != nil {
		return State{}, err
	}

	st := State{
		Users:    make([]UserState, 0, len(s.users)),
		Courses:  make([]CourseState, 0, len(s.courses)),
		Progress: make([]ProgressState, 0, len(s.progress)),
	}
	if s.session != nil {
		st.Session = s.session.ID
	}
	for _, u := range s.users {
		st.Users = append(st.Users, UserState{ID: u.ID, Email: u.Email, Role: u.Role, Enrolled: nonNil(u.EnrolledCourses)})
	}
	for _, c := range s.courses {
		st.Courses = append(st.Courses, CourseState{
			ID:         c.ID,
			Title:      c.Title,
			Instructor: c.Instructor,
			Lessons:    len(c.Lessons),
			Students:   nonNil(c.EnrolledStudents),
		})
	}
	for _, p := range s.progress {
		st.Progress = append(st.Progress, ProgressState{User: p.UserID, Course: p.CourseID, Completed: nonNil(p.CompletedLessons)})
	}
	return st, nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
