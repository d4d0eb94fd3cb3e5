package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/progress"
	"github.com/N-Bhageeratha/OLP/internal/seed"
)

// Dashboard routes for each role.
const (
	StudentDashboard    = "/dashboard"
	InstructorDashboard = "/instructor/dashboard"
)

// dashboardFor returns the landing route for u.
func dashboardFor(u domain.User) string {
	if u.IsInstructor() {
		return InstructorDashboard
	}
	return StudentDashboard
}

type sessionView struct {
	User      domain.User `json:"user"`
	Dashboard string      `json:"dashboard"`
}

func newSessionView(u domain.User) sessionView {
	return sessionView{User: u, Dashboard: dashboardFor(u)}
}

func (v sessionView) String() string {
	return fmt.Sprintf("Signed in as %s <%s> (%s)\nDashboard: %s", v.User.Name, v.User.Email, v.User.Role, v.Dashboard)
}

type userView struct {
	User domain.User `json:"user"`
}

func (v userView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", v.User.Name, v.User.Email)
	fmt.Fprintf(&b, "  id:       %s\n", v.User.ID)
	fmt.Fprintf(&b, "  role:     %s\n", v.User.Role)
	fmt.Fprintf(&b, "  enrolled: %d course(s)", len(v.User.EnrolledCourses))
	return b.String()
}

type messageView struct {
	Message string `json:"message"`
}

func (v messageView) String() string { return v.Message }

type courseListView struct {
	Courses       []domain.Course `json:"courses"`
	TotalStudents int             `json:"totalStudents"`
}

func newCourseListView(courses []domain.Course) courseListView {
	if courses == nil {
		courses = []domain.Course{}
	}
	return courseListView{Courses: courses, TotalStudents: catalog.TotalStudents(courses)}
}

func (v courseListView) String() string {
	if len(v.Courses) == 0 {
		return "No courses."
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLEVEL\tINSTRUCTOR\tLESSONS\tSTUDENTS")
	for _, c := range v.Courses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", c.ID, c.Title, c.Level, c.InstructorName, len(c.Lessons), len(c.EnrolledStudents))
	}
	w.Flush()
	fmt.Fprintf(&b, "%d course(s), %d student(s)", len(v.Courses), v.TotalStudents)
	return b.String()
}

type courseView struct {
	Course domain.Course `json:"course"`
}

func (v courseView) String() string {
	c := v.Course
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", c.Title, c.ID)
	fmt.Fprintf(&b, "  instructor: %s\n", c.InstructorName)
	fmt.Fprintf(&b, "  level:      %s\n", c.Level)
	fmt.Fprintf(&b, "  category:   %s\n", c.Category)
	fmt.Fprintf(&b, "  duration:   %d min\n", c.TotalDuration())
	fmt.Fprintf(&b, "  students:   %d\n", len(c.EnrolledStudents))
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "  %2d. %s (%d min) [%s]\n", l.Order, l.Title, l.Duration, l.ID)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type progressView struct {
	Progress domain.Progress `json:"progress"`
	Percent  int             `json:"percent"`
	Lessons  int             `json:"lessons"`
}

func (v progressView) String() string {
	return fmt.Sprintf("%s: %d/%d lessons complete (%d%%)", v.Progress.CourseID, len(v.Progress.CompletedLessons), v.Lessons, v.Percent)
}

type summaryView struct {
	progress.Summary
	Courses []progressView `json:"courses"`
}

func (v summaryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enrolled: %d  Completed: %d  In progress: %d", v.Enrolled, v.Completed, v.InProgress)
	for _, c := range v.Courses {
		fmt.Fprintf(&b, "\n  %s", c)
	}
	return b.String()
}

type seedView struct {
	seed.Stats
}

func (v seedView) String() string {
	return fmt.Sprintf("Loaded sample data: %d instructor(s), %d course(s), %d lesson(s)", v.Users, v.Courses, v.Lessons)
}
