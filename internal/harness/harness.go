package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/app"
	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/identity"
	"github.com/N-Bhageeratha/OLP/internal/progress"
	"github.com/N-Bhageeratha/OLP/internal/store"
	"github.com/N-Bhageeratha/OLP/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and id sequence.
type Harness struct {
	app  *app.App
	refs map[string]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database (seeded if requested)
// 2. Execute flow steps, checking expect clauses and invariants after each
// 3. Evaluate assertions against the final state
// 4. Return result with pass/fail, trace, state and errors
func Run(scenario *Scenario) (*Result, error) {
	a, err := app.Open(store.MemoryPath, app.Options{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		Clock:      testutil.NewDeterministicClock(),
		IDs:        testutil.NewSequenceGenerator("id"),
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer a.Close()

	ctx := context.Background()
	if scenario.Seed {
		if _, err := a.Seed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed: %w", err)
		}
	}

	h := &Harness{app: a, refs: map[string]string{}}
	result := NewResult()

	for i, step := range scenario.Flow {
		res, stepErr := h.execute(ctx, step)
		outcome := OutcomeOK
		if stepErr != nil {
			outcome = domain.Code(stepErr)
			if outcome == "internal" {
				return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Invoke, stepErr)
			}
		}
		result.AddTrace(step.Invoke, outcome, res)

		for _, msg := range h.checkExpect(ctx, step, outcome, res) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
		}
		violations, err := CheckInvariants(ctx, a.Store)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: check invariants: %w", i, err)
		}
		for _, v := range violations {
			result.AddError(fmt.Sprintf("flow[%d] %s: invariant: %s", i, step.Invoke, v))
		}
	}

	for _, assertion := range scenario.Assertions {
		if err := h.evaluate(ctx, assertion); err != nil {
			result.AddError(err.Error())
		}
	}

	state, err := Snapshot(ctx, a.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot state: %w", err)
	}
	result.State = state
	return result, nil
}

// execute runs one step. The returned map is the step's trace result.
func (h *Harness) execute(ctx context.Context, step FlowStep) (map[string]any, error) {
	a := h.app
	switch step.Invoke {
	case OpRegister:
		sess, err := a.Directory.Register(ctx, identity.RegisterInput{
			Email:    str(step.Args, "email"),
			Password: str(step.Args, "password"),
			Name:     str(step.Args, "name"),
			Role:     domain.Role(str(step.Args, "role")),
		})
		if err != nil {
			return nil, err
		}
		h.bind(step.Args, sess.User.ID)
		return map[string]any{"user": sess.User.ID}, nil

	case OpLogin:
		sess, err := a.Directory.Login(ctx, str(step.Args, "email"), str(step.Args, "password"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"user": sess.User.ID}, nil

	case OpLogout:
		return nil, a.Directory.Logout(ctx)

	case OpEnroll:
		usr, err := a.Directory.Get(ctx, h.id(step.Args, "user"))
		if err != nil {
			return nil, err
		}
		e, err := a.Catalog.Enroll(ctx, usr, domain.Course{ID: h.id(step.Args, "course")})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"user":    e.User.ID,
			"course":  e.Course.ID,
			"percent": progress.PercentComplete(e.Progress, len(e.Course.Lessons)),
		}, nil

	case OpToggle:
		course, err := a.Catalog.Get(ctx, h.id(step.Args, "course"))
		if err != nil {
			return nil, err
		}
		lessonID, err := lessonArg(course, step.Args["lesson"])
		if err != nil {
			return nil, err
		}
		p, err := a.Tracker.Get(ctx, h.id(step.Args, "user"), course.ID)
		if err != nil {
			return nil, err
		}
		p, err = a.Tracker.ToggleLesson(ctx, p, lessonID)
		if err != nil {
			return nil, err
		}
		pct, err := a.Tracker.CoursePercent(ctx, p)
		if err != nil {
			return nil, err
		}
		return map[string]any{"completed": len(p.CompletedLessons), "percent": pct}, nil

	case OpCreateCourse:
		inst, err := a.Directory.Get(ctx, h.id(step.Args, "instructor"))
		if err != nil {
			return nil, err
		}
		d := catalog.Draft{
			Title:    str(step.Args, "title"),
			Category: str(step.Args, "category"),
			Level:    domain.Level(str(step.Args, "level")),
			Lessons:  newLessons(0, num(step.Args, "lessons")),
		}
		if d.Level == "" {
			d.Level = domain.LevelBeginner
		}
		course, err := a.Catalog.Create(ctx, inst, d)
		if err != nil {
			return nil, err
		}
		h.bind(step.Args, course.ID)
		return map[string]any{"course": course.ID, "lessons": len(course.Lessons)}, nil

	case OpEditCourse:
		inst, err := a.Directory.Get(ctx, h.id(step.Args, "instructor"))
		if err != nil {
			return nil, err
		}
		course, err := a.Catalog.Get(ctx, h.id(step.Args, "course"))
		if err != nil {
			return nil, err
		}
		d := catalog.Draft{
			Title:       course.Title,
			Description: course.Description,
			Category:    course.Category,
			Level:       course.Level,
			Thumbnail:   course.Thumbnail,
			Lessons:     course.Lessons,
		}
		if _, ok := step.Args["title"]; ok {
			d.Title = str(step.Args, "title")
		}
		if _, ok := step.Args["lessons"]; ok {
			n := num(step.Args, "lessons")
			keep := d.Lessons[:min(n, len(d.Lessons))]
			d.Lessons = append(slices.Clone(keep), newLessons(len(keep), n-len(keep))...)
		}
		course, err = a.Catalog.Edit(ctx, inst, course.ID, d)
		if err != nil {
			return nil, err
		}
		return map[string]any{"course": course.ID, "lessons": len(course.Lessons)}, nil

	case OpDeleteCourse:
		id := h.id(step.Args, "course")
		if err := a.Catalog.Delete(ctx, id); err != nil {
			return nil, err
		}
		return map[string]any{"course": id}, nil
	}
	return nil, fmt.Errorf("unknown operation %q", step.Invoke)
}

// checkExpect compares a step's outcome with its expect clause.
func (h *Harness) checkExpect(ctx context.Context, step FlowStep, outcome string, res map[string]any) []string {
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if outcome != want {
		return []string{fmt.Sprintf("expected outcome %q, got %q", want, outcome)}
	}
	if step.Expect == nil {
		return nil
	}

	var errs []string
	if step.Expect.Percent != nil {
		if got, ok := res["percent"].(int); !ok || got != *step.Expect.Percent {
			errs = append(errs, fmt.Sprintf("expected percent %d, got %v", *step.Expect.Percent, res["percent"]))
		}
	}
	if step.Expect.Enrolled != nil {
		userID := h.id(step.Args, "user")
		if step.Invoke == OpRegister {
			userID, _ = res["user"].(string)
		}
		if err := h.assertEnrolled(ctx, userID, step.Expect.Enrolled); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// evaluate checks one final-state assertion.
func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertEnrolled:
		return h.assertEnrolled(ctx, h.resolve(a.User), a.Courses)

	case AssertPercent:
		p, err := h.app.Tracker.Get(ctx, h.resolve(a.User), h.resolve(a.Course))
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d%%", *a.Percent), Actual: err.Error()}
		}
		got, err := h.app.Tracker.CoursePercent(ctx, p)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d%%", *a.Percent), Actual: err.Error()}
		}
		if got != *a.Percent {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d%%", *a.Percent), Actual: fmt.Sprintf("%d%%", got)}
		}

	case AssertSession:
		want := ""
		if a.User != "" {
			want = h.resolve(a.User)
		}
		got := ""
		usr, err := h.app.Directory.CurrentUser(ctx)
		switch {
		case err == nil:
			got = usr.ID
		case !errors.Is(err, domain.ErrNoSession):
			return err
		}
		if got != want {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
		}

	case AssertCourseCount:
		courses, err := h.app.Catalog.List(ctx)
		if err != nil {
			return err
		}
		if len(courses) != *a.Count {
			return &AssertionError{Type: a.Type, Expected: strconv.Itoa(*a.Count), Actual: strconv.Itoa(len(courses))}
		}
	}
	return nil
}

func (h *Harness) assertEnrolled(ctx context.Context, userID string, refs []string) error {
	want := make([]string, len(refs))
	for i, r := range refs {
		want[i] = h.resolve(r)
	}
	usr, err := h.app.Directory.Get(ctx, userID)
	if err != nil {
		return &AssertionError{Type: AssertEnrolled, Expected: fmt.Sprint(want), Actual: err.Error()}
	}
	if !slices.Equal(usr.EnrolledCourses, want) {
		return &AssertionError{Type: AssertEnrolled, Expected: fmt.Sprint(want), Actual: fmt.Sprint(usr.EnrolledCourses)}
	}
	return nil
}

// bind records the step's ref, if any, for id.
func (h *Harness) bind(args map[string]any, id string) {
	if ref := str(args, "ref"); ref != "" {
		h.refs[ref] = id
	}
}

func (h *Harness) id(args map[string]any, key string) string {
	return h.resolve(str(args, key))
}

func (h *Harness) resolve(ref string) string {
	if id, ok := h.refs[ref]; ok {
		return id
	}
	return ref
}

// lessonArg accepts a 1-based lesson position or a lesson id.
func lessonArg(course domain.Course, v any) (string, error) {
	if n, ok := v.(int); ok {
		if n < 1 || n > len(course.Lessons) {
			return "", fmt.Errorf("lesson %d of course %q: %w", n, course.ID, domain.ErrNotFound)
		}
		return course.Lessons[n-1].ID, nil
	}
	return fmt.Sprint(v), nil
}

func newLessons(offset, n int) []domain.Lesson {
	lessons := make([]domain.Lesson, 0, max(n, 0))
	for i := 0; i < n; i++ {
		lessons = append(lessons, domain.Lesson{
			Title:    fmt.Sprintf("Lesson %d", offset+i+1),
			Content:  "Scenario lesson.",
			Duration: 10,
		})
	}
	return lessons
}

func str(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func num(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}
