package catalog

import (
	"context"
	"fmt"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

// Lookup returns the course with the given id or domain.ErrMissingCourse.
func Lookup(ctx context.Context, r store.Reader, id string) (domain.Course, error) {
	course, ok, err := store.Find(ctx, r, store.Courses, func(c domain.Course) bool { return c.ID == id })
	if err != nil {
		return domain.Course{}, fmt.Errorf("lookup course: %w", err)
	}
	if !ok {
		return domain.Course{}, fmt.Errorf("course %q: %w", id, domain.ErrMissingCourse)
	}
	return course, nil
}

// PutCourse upserts course by id without validating it.
func PutCourse(ctx context.Context, rw store.ReadWriter, course domain.Course) error {
	return store.Upsert(ctx, rw, store.Courses, course, func(c domain.Course) bool { return c.ID == course.ID })
}
