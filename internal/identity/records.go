package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

// The helpers below work on any store.Reader / store.ReadWriter so other
// components can use them inside their own transactions.

// Lookup returns the user with the given id or domain.ErrNotFound.
func Lookup(ctx context.Context, r store.Reader, id string) (domain.User, error) {
	usr, ok, err := store.Find(ctx, r, store.Users, func(u domain.User) bool { return u.ID == id })
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	return usr, nil
}

// PutUser upserts u by id.
func PutUser(ctx context.Context, rw store.ReadWriter, u domain.User) error {
	if u.EnrolledCourses == nil {
		u.EnrolledCourses = []string{}
	}
	return store.Upsert(ctx, rw, store.Users, u, func(x domain.User) bool { return x.ID == u.ID })
}

// PutCredential upserts a credential by user id.
func PutCredential(ctx context.Context, rw store.ReadWriter, c domain.Credential) error {
	return putCredential(ctx, rw, c)
}

// SyncSession rewrites the session slot with u if the slot holds u's id.
func SyncSession(ctx context.Context, rw store.ReadWriter, u domain.User) error {
	cur, ok, err := store.Load[domain.User](ctx, rw, store.CurrentUserKey)
	if err != nil {
		return err
	}
	if !ok || cur.ID != u.ID {
		return nil
	}
	return store.Save(ctx, rw, store.CurrentUserKey, u)
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func putCredential(ctx context.Context, rw store.ReadWriter, c domain.Credential) error {
	return store.Upsert(ctx, rw, store.Credentials, c, func(x domain.Credential) bool { return x.UserID == c.UserID })
}

func findByEmail(ctx context.Context, r store.Reader, email string) (domain.User, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return domain.User{}, domain.ErrNotFound
	}
	usr, ok, err := store.Find(ctx, r, store.Users, func(u domain.User) bool {
		return u.Email != "" && domain.NormalizeEmail(u.Email) == normalized
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("find by email: %w", err)
	}
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return usr, nil
}

// checkEmailUnique fails with a validation error wrapping
// domain.ErrEmailExists when another user (not exceptID) has email.
func checkEmailUnique(ctx context.Context, r store.Reader, email, exceptID string) error {
	usr, err := findByEmail(ctx, r, email)
	switch {
	case err == nil && usr.ID != exceptID:
		return domain.NewValidationError(domain.ErrEmailExists,
			domain.FieldError{Field: "email", Error: domain.ErrEmailExists.Error()})
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}
