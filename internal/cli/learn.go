package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/N-Bhageeratha/OLP/internal/app"
	"github.com/N-Bhageeratha/OLP/internal/domain"
)

// NewEnrollCommand creates the enroll command.
func NewEnrollCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll the signed-in user in a course",
		Long: `Enroll the signed-in user in a course. Enrolling twice is a no-op and
keeps the existing progress.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				ctx := cmd.Context()
				usr, err := a.Directory.CurrentUser(ctx)
				if err != nil {
					return out.Fail(err)
				}
				course, err := a.Catalog.Get(ctx, args[0])
				if err != nil {
					return out.Fail(err)
				}
				enr, err := a.Catalog.Enroll(ctx, usr, course)
				if err != nil {
					return out.Fail(err)
				}
				pct, err := a.Tracker.CoursePercent(ctx, enr.Progress)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(progressView{Progress: enr.Progress, Percent: pct, Lessons: len(enr.Course.Lessons)})
			})
		},
	}
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <course-id> <lesson>",
		Short: "Mark a lesson complete, or incomplete again",
		Long: `Flip the completion state of one lesson for the signed-in user. The lesson
is named by its id or by its 1-based position in the course.

Examples:
  olp toggle 1 l2
  olp toggle 1 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				view, err := toggle(cmd.Context(), a, args[0], args[1])
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(view)
			})
		},
	}
}

func toggle(ctx context.Context, a *app.App, courseID, lessonRef string) (progressView, error) {
	usr, err := a.Directory.CurrentUser(ctx)
	if err != nil {
		return progressView{}, err
	}
	course, err := a.Catalog.Get(ctx, courseID)
	if err != nil {
		return progressView{}, err
	}
	if err := requireEnrolled(usr, course.ID); err != nil {
		return progressView{}, err
	}
	lessonID, err := resolveLesson(course, lessonRef)
	if err != nil {
		return progressView{}, err
	}
	p, err := a.Tracker.Get(ctx, usr.ID, course.ID)
	if err != nil {
		return progressView{}, err
	}
	if p, err = a.Tracker.ToggleLesson(ctx, p, lessonID); err != nil {
		return progressView{}, err
	}
	pct, err := a.Tracker.CoursePercent(ctx, p)
	if err != nil {
		return progressView{}, err
	}
	return progressView{Progress: p, Percent: pct, Lessons: len(course.Lessons)}, nil
}

// resolveLesson accepts a lesson id or a 1-based position. An id wins over a
// position when both match.
func resolveLesson(course domain.Course, ref string) (string, error) {
	if course.HasLesson(ref) {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(course.Lessons) {
		return course.Lessons[n-1].ID, nil
	}
	return "", fmt.Errorf("lesson %q in course %q: %w", ref, course.ID, domain.ErrNotFound)
}

// requireEnrolled fails with domain.ErrNotFound unless usr is enrolled in
// courseID.
func requireEnrolled(usr domain.User, courseID string) error {
	if !usr.IsEnrolled(courseID) {
		return fmt.Errorf("enrollment in course %q: %w", courseID, domain.ErrNotFound)
	}
	return nil
}

// NewProgressCommand creates the progress command.
func NewProgressCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [course-id]",
		Short: "Show lesson progress for the signed-in user",
		Long: `Show completion for one enrolled course, or a summary across every
enrolled course when no course is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				ctx := cmd.Context()
				usr, err := a.Directory.CurrentUser(ctx)
				if err != nil {
					return out.Fail(err)
				}
				if len(args) == 1 {
					view, err := courseProgress(ctx, a, usr, args[0])
					if err != nil {
						return out.Fail(err)
					}
					return out.Success(view)
				}
				view, err := progressSummary(ctx, a, usr)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(view)
			})
		},
	}
}

func courseProgress(ctx context.Context, a *app.App, usr domain.User, courseID string) (progressView, error) {
	course, err := a.Catalog.Get(ctx, courseID)
	if err != nil {
		return progressView{}, err
	}
	p, err := a.Tracker.Get(ctx, usr.ID, course.ID)
	if err != nil {
		return progressView{}, err
	}
	pct, err := a.Tracker.CoursePercent(ctx, p)
	if err != nil {
		return progressView{}, err
	}
	return progressView{Progress: p, Percent: pct, Lessons: len(course.Lessons)}, nil
}

func progressSummary(ctx context.Context, a *app.App, usr domain.User) (summaryView, error) {
	sum, err := a.Tracker.Summary(ctx, usr)
	if err != nil {
		return summaryView{}, err
	}
	courses, err := a.Catalog.EnrolledFor(ctx, usr)
	if err != nil {
		return summaryView{}, err
	}
	view := summaryView{Summary: sum, Courses: make([]progressView, 0, len(courses))}
	for _, c := range courses {
		pv, err := courseProgress(ctx, a, usr, c.ID)
		if err != nil {
			return summaryView{}, err
		}
		view.Courses = append(view.Courses, pv)
	}
	return view, nil
}
