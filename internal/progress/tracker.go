// Package progress tracks lesson completion per (user, course) pair.
//
// A pair moves from not enrolled to enrolled at 0%, then anywhere between 0%
// and 100% as lessons are toggled. Completion can be undone, so 100% is not
// a terminal state.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

type Tracker struct {
	store   *store.Store
	catalog *catalog.Catalog
	clock   domain.Clock
	logger  *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithClock(c domain.Clock) Option  { return func(t *Tracker) { t.clock = c } }
func WithLogger(l *slog.Logger) Option { return func(t *Tracker) { t.logger = l } }

func New(st *store.Store, cat *catalog.Catalog, opts ...Option) *Tracker {
	t := &Tracker{
		store:   st,
		catalog: cat,
		clock:   domain.SystemClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Summary counts a student's enrolled courses by completion.
type Summary struct {
	Enrolled   int `json:"enrolled"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
}

// Get returns the progress record for the pair or domain.ErrNotFound.
func (t *Tracker) Get(ctx context.Context, userID, courseID string) (domain.Progress, error) {
	key := domain.ProgressKey{UserID: userID, CourseID: courseID}
	p, ok, err := store.Find(ctx, t.store, store.Progress, func(p domain.Progress) bool { return p.Key() == key })
	if err != nil {
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	if !ok {
		return domain.Progress{}, fmt.Errorf("progress for user %q in course %q: %w", userID, courseID, domain.ErrNotFound)
	}
	return p, nil
}

// ToggleLesson flips lessonID's membership in p's completed lessons,
// refreshes lastAccessed and upserts the record by (userId, courseId).
func (t *Tracker) ToggleLesson(ctx context.Context, p domain.Progress, lessonID string) (domain.Progress, error) {
	done := slices.Clone(p.CompletedLessons)
	if i := slices.Index(done, lessonID); i >= 0 {
		done = slices.Delete(done, i, i+1)
	} else {
		done = append(done, lessonID)
	}
	if done == nil {
		done = []string{}
	}
	p.CompletedLessons = done
	p.LastAccessed = t.clock.Now()

	key := p.Key()
	err := t.store.Update(ctx, func(tx *store.Tx) error {
		return store.Upsert(ctx, tx, store.Progress, p, func(x domain.Progress) bool { return x.Key() == key })
	})
	if err != nil {
		return domain.Progress{}, fmt.Errorf("toggle lesson: %w", err)
	}
	t.logger.Debug("lesson toggled", "user_id", p.UserID, "course_id", p.CourseID, "lesson_id", lessonID, "completed", len(done))
	return p, nil
}

// PercentComplete returns round(100 * completed / totalLessons), clamped to
// 0..100. Only a fully completed course reports 100. A course without
// lessons is 0% complete.
func PercentComplete(p domain.Progress, totalLessons int) int {
	return percent(len(p.CompletedLessons), totalLessons)
}

// CoursePercent is PercentComplete against the current lessons of p's
// course. Completed ids that no longer name a lesson are not counted, so the
// result is 100 iff every lesson of the course is complete.
func (t *Tracker) CoursePercent(ctx context.Context, p domain.Progress) (int, error) {
	course, err := t.catalog.Get(ctx, p.CourseID)
	if err != nil {
		return 0, err
	}
	return coursePercent(p, course), nil
}

// Summary counts user's enrolled courses that are complete and in progress.
// Enrollments pointing at courses that no longer exist are skipped.
func (t *Tracker) Summary(ctx context.Context, user domain.User) (Summary, error) {
	courses, err := t.catalog.EnrolledFor(ctx, user)
	if err != nil {
		return Summary{}, err
	}
	records, err := store.List[domain.Progress](ctx, t.store, store.Progress)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Enrolled: len(courses)}
	for _, c := range courses {
		idx := slices.IndexFunc(records, func(p domain.Progress) bool {
			return p.UserID == user.ID && p.CourseID == c.ID
		})
		if idx < 0 {
			continue
		}
		switch pct := coursePercent(records[idx], c); {
		case pct == 100:
			s.Completed++
		case pct > 0:
			s.InProgress++
		}
	}
	return s, nil
}

func coursePercent(p domain.Progress, c domain.Course) int {
	var n int
	for _, id := range p.CompletedLessons {
		if c.HasLesson(id) {
			n++
		}
	}
	return percent(n, len(c.Lessons))
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(done) / float64(total)))
	if pct >= 100 && done < total {
		// 199 of 200 must not read as complete.
		return 99
	}
	return min(max(pct, 0), 100)
}
