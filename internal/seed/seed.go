// Package seed loads the bundled sample catalog and writes it into a store.
//
// The fixture is a CUE file embedded in the binary. Its definitions
// (#Course, #Lesson, #Instructor) constrain the data, so a malformed fixture
// fails at Load rather than producing half-valid records.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/identity"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

//go:embed sample.cue
var sampleSource []byte

// Instructor is a seeded instructor account.
type Instructor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Fixture is the decoded sample data.
type Fixture struct {
	Password    string          `json:"password"`
	Instructors []Instructor    `json:"instructors"`
	Courses     []domain.Course `json:"courses"`
}

// Stats reports what Bootstrap wrote.
type Stats struct {
	Users   int `json:"users"`
	Courses int `json:"courses"`
	Lessons int `json:"lessons"`
}

// Load compiles the embedded fixture and decodes it.
func Load() (*Fixture, error) {
	return Parse(sampleSource)
}

// Parse compiles src as a fixture in the format of the embedded sample.
func Parse(src []byte) (*Fixture, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename("sample.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture: %w", err)
	}

	var fx Fixture
	for _, field := range []struct {
		path string
		dst  any
	}{
		{"password", &fx.Password},
		{"instructors", &fx.Instructors},
		{"courses", &fx.Courses},
	} {
		fv := v.LookupPath(cue.ParsePath(field.path))
		if !fv.Exists() {
			return nil, fmt.Errorf("fixture: missing %q", field.path)
		}
		if err := fv.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", field.path, err)
		}
		if err := fv.Decode(field.dst); err != nil {
			return nil, fmt.Errorf("decode fixture %s: %w", field.path, err)
		}
	}
	return &fx, nil
}

// Option configures Bootstrap.
type Option func(*options)

type options struct {
	clock  domain.Clock
	cost   int
	logger *slog.Logger
}

func WithClock(c domain.Clock) Option  { return func(o *options) { o.clock = c } }
func WithBcryptCost(cost int) Option   { return func(o *options) { o.cost = cost } }
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Bootstrap wipes st and writes fx in one transaction: the instructors with
// their password hashes, then the courses. Seeded courses start with no
// enrolled students.
func Bootstrap(ctx context.Context, st *store.Store, fx *Fixture, opts ...Option) (Stats, error) {
	o := options{clock: domain.SystemClock{}, cost: bcrypt.DefaultCost, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	hash, err := identity.HashPassword(fx.Password, o.cost)
	if err != nil {
		return Stats{}, fmt.Errorf("seed: %w", err)
	}

	now := o.clock.Now()
	var stats Stats
	err = st.Update(ctx, func(tx *store.Tx) error {
		if err := tx.ClearAll(ctx); err != nil {
			return err
		}
		for _, in := range fx.Instructors {
			usr := domain.User{
				ID:              in.ID,
				Email:           domain.NormalizeEmail(in.Email),
				Name:            in.Name,
				Role:            domain.RoleInstructor,
				EnrolledCourses: []string{},
				CreatedAt:       now,
			}
			if err := identity.PutUser(ctx, tx, usr); err != nil {
				return err
			}
			if err := identity.PutCredential(ctx, tx, domain.Credential{UserID: usr.ID, PasswordHash: hash}); err != nil {
				return err
			}
			stats.Users++
		}
		for _, c := range fx.Courses {
			c.EnrolledStudents = []string{}
			c.CreatedAt = now
			c.Renumber()
			if err := domain.Validate(c); err != nil {
				return fmt.Errorf("course %q: %w", c.ID, err)
			}
			if err := catalog.PutCourse(ctx, tx, c); err != nil {
				return err
			}
			stats.Courses++
			stats.Lessons += len(c.Lessons)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("seed: %w", err)
	}

	o.logger.Info("sample data loaded", "users", stats.Users, "courses", stats.Courses, "lessons", stats.Lessons)
	return stats, nil
}
