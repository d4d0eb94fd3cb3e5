package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/N-Bhageeratha/OLP/internal/app"
	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
)

// CoursesListOptions holds flags for the courses list command.
type CoursesListOptions struct {
	*RootOptions
	Mine      bool
	Enrolled  bool
	Available bool
}

// NewCoursesCommand creates the courses command group.
func NewCoursesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse and author courses",
	}

	cmd.AddCommand(newCoursesListCommand(rootOpts))
	cmd.AddCommand(newCoursesShowCommand(rootOpts))
	cmd.AddCommand(newCoursesCreateCommand(rootOpts))
	cmd.AddCommand(newCoursesEditCommand(rootOpts))
	cmd.AddCommand(newCoursesDeleteCommand(rootOpts))

	return cmd
}

func newCoursesListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoursesListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Long: `List every course, or a view of the catalog for the signed-in user.

  --mine       courses the signed-in instructor owns
  --enrolled   courses the signed-in user is enrolled in
  --available  courses the signed-in user has not enrolled in`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				courses, err := listCourses(cmd.Context(), a, opts)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(newCourseListView(courses))
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Mine, "mine", false, "only courses owned by the signed-in instructor")
	cmd.Flags().BoolVar(&opts.Enrolled, "enrolled", false, "only courses the signed-in user is enrolled in")
	cmd.Flags().BoolVar(&opts.Available, "available", false, "only courses the signed-in user can still enroll in")
	cmd.MarkFlagsMutuallyExclusive("mine", "enrolled", "available")

	return cmd
}

func listCourses(ctx context.Context, a *app.App, opts *CoursesListOptions) ([]domain.Course, error) {
	if !opts.Mine && !opts.Enrolled && !opts.Available {
		return a.Catalog.List(ctx)
	}
	usr, err := a.Directory.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case opts.Mine:
		if !usr.IsInstructor() {
			return nil, domain.ErrNotInstructor
		}
		return a.Catalog.ByInstructor(ctx, usr.ID)
	case opts.Enrolled:
		return a.Catalog.EnrolledFor(ctx, usr)
	default:
		return a.Catalog.AvailableFor(ctx, usr)
	}
}

func newCoursesShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show a course and its lessons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				course, err := a.Catalog.Get(cmd.Context(), args[0])
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(courseView{Course: course})
			})
		},
	}
}

// CourseDraftOptions holds flags shared by courses create and edit.
type CourseDraftOptions struct {
	*RootOptions
	File string
}

func newCoursesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CourseDraftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create -f <draft>",
		Short: "Create a course owned by the signed-in instructor",
		Long: `Create a course from a draft file (.yaml, .json or .cue) holding title,
description, category, level, thumbnail and lessons. Lessons without an id
are given one; lesson order follows their position in the file.

Examples:
  olp courses create -f go-basics.yaml
  olp courses create -f go-basics.cue --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(opts.File)
			if err != nil {
				return WrapExitError(ExitCommandError, "load draft", err)
			}
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				ctx := cmd.Context()
				usr, err := a.Directory.CurrentUser(ctx)
				if err != nil {
					return out.Fail(err)
				}
				course, err := a.Catalog.Create(ctx, usr, draft)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(courseView{Course: course})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "course draft file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCoursesEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CourseDraftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <course-id> -f <draft>",
		Short: "Replace the editable fields of an owned course",
		Long: `Replace title, description, category, level, thumbnail and lessons of a
course owned by the signed-in instructor. Enrolled students and progress are
kept; lessons that keep their id keep their completion state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(opts.File)
			if err != nil {
				return WrapExitError(ExitCommandError, "load draft", err)
			}
			return opts.withApp(cmd, func(a *app.App, out *OutputFormatter) error {
				ctx := cmd.Context()
				usr, err := a.Directory.CurrentUser(ctx)
				if err != nil {
					return out.Fail(err)
				}
				course, err := a.Catalog.Edit(ctx, usr, args[0], draft)
				if err != nil {
					return out.Fail(err)
				}
				return out.Success(courseView{Course: course})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "course draft file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newCoursesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <course-id>",
		Short: "Delete an owned course with its enrollments and progress",
		Args:  cobra.ExactArgs(1),
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
				if err := catalog.RequireOwner(course, usr); err != nil {
					return out.Fail(err)
				}
				if err := a.Catalog.Delete(ctx, course.ID); err != nil {
					return out.Fail(err)
				}
				return out.Success(messageView{Message: "Deleted course " + course.ID + "."})
			})
		},
	}
}
