package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
	"github.com/N-Bhageeratha/OLP/internal/testutil"
)

func newTestDirectory(t *testing.T) (*Directory, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := New(st,
		WithIDGenerator(testutil.NewSequenceGenerator("user")),
		WithClock(testutil.NewDeterministicClock()),
		WithBcryptCost(bcrypt.MinCost),
	)
	return dir, st
}

func register(t *testing.T, dir *Directory, email string, role domain.Role) domain.User {
	t.Helper()
	sess, err := dir.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "secret",
		Name:     "Test User",
		Role:     role,
	})
	require.NoError(t, err)
	return sess.User
}

func TestRegister_CreatesUserAndSession(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)

	sess, err := dir.Register(ctx, RegisterInput{
		Email:    "  Ada@Example.COM ",
		Password: "pw",
		Name:     " Ada Lovelace ",
		Role:     domain.RoleStudent,
	})
	require.NoError(t, err)

	usr := sess.User
	assert.Equal(t, "user-1", usr.ID)
	assert.Equal(t, "ada@example.com", usr.Email)
	assert.Equal(t, "Ada Lovelace", usr.Name)
	assert.Equal(t, domain.RoleStudent, usr.Role)
	assert.NotNil(t, usr.EnrolledCourses)
	assert.Empty(t, usr.EnrolledCourses)
	assert.Equal(t, testutil.Epoch.Add(time.Second), usr.CreatedAt)

	cur, err := dir.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, usr, cur)
}

func TestRegister_FindByEmailIgnoresCaseAndWhitespace(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	usr := register(t, dir, "foo@bar.com", domain.RoleStudent)

	for _, variant := range []string{"foo@bar.com", "FOO@BAR.COM", "  Foo@Bar.com\t", "fOo@bAr.CoM "} {
		t.Run(variant, func(t *testing.T) {
			found, err := dir.FindByEmail(ctx, variant)
			require.NoError(t, err)
			assert.Equal(t, usr, found)
		})
	}
}

func TestRegister_DuplicateEmailFails(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	register(t, dir, "foo@bar.com", domain.RoleStudent)

	_, err := dir.Register(ctx, RegisterInput{
		Email:    " Foo@Bar.com",
		Password: "other",
		Name:     "Someone Else",
		Role:     domain.RoleInstructor,
	})
	require.ErrorIs(t, err, domain.ErrEmailExists)
	assert.Equal(t, "email_exists", domain.Code(err))

	users, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegister_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "x", Name: "N", Role: domain.RoleStudent}, "email"},
		{"missing name", RegisterInput{Email: "a@b.co", Password: "x", Name: "  ", Role: domain.RoleStudent}, "name"},
		{"missing password", RegisterInput{Email: "a@b.co", Name: "N", Role: domain.RoleStudent}, "password"},
		{"bad role", RegisterInput{Email: "a@b.co", Password: "x", Name: "N", Role: "admin"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.Register(ctx, tt.in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}

	_, err := dir.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestFindByEmail_EmptyInput(t *testing.T) {
	dir, _ := newTestDirectory(t)
	register(t, dir, "foo@bar.com", domain.RoleStudent)

	_, err := dir.FindByEmail(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin_Succeeds(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	usr := register(t, dir, "foo@bar.com", domain.RoleInstructor)
	require.NoError(t, dir.Logout(ctx))

	sess, err := dir.Login(ctx, "FOO@bar.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, usr, sess.User)

	restored, err := dir.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, usr, restored.User)
}

func TestLogin_UnknownEmailLeavesSessionAlone(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	usr := register(t, dir, "foo@bar.com", domain.RoleStudent)

	_, err := dir.Login(ctx, "nobody@bar.com", "secret")
	require.ErrorIs(t, err, domain.ErrNotFound)

	cur, err := dir.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, cur.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	register(t, dir, "foo@bar.com", domain.RoleStudent)
	require.NoError(t, dir.Logout(ctx))

	_, err := dir.Login(ctx, "foo@bar.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = dir.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestLogin_UserWithoutCredential(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	require.NoError(t, dir.SaveUser(ctx, domain.User{ID: "raw", Email: "raw@bar.com", Name: "Raw", Role: domain.RoleStudent}))

	_, err := dir.Login(ctx, "raw@bar.com", "anything")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, dir.SetPassword(ctx, "raw", "now-set"))
	_, err = dir.Login(ctx, "raw@bar.com", "now-set")
	assert.NoError(t, err)
}

func TestSaveUser_DoesNotCheckEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	register(t, dir, "foo@bar.com", domain.RoleStudent)

	require.NoError(t, dir.SaveUser(ctx, domain.User{ID: "dup", Email: "FOO@bar.com", Role: domain.RoleStudent}))
	users, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestLogout_ClearsSession(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	register(t, dir, "foo@bar.com", domain.RoleStudent)

	require.NoError(t, dir.Logout(ctx))
	_, err := dir.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = dir.Restore(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestUpdateProfile_RefreshesSession(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	usr := register(t, dir, "foo@bar.com", domain.RoleStudent)

	name := "Renamed"
	email := " New@Bar.com"
	updated, err := dir.UpdateProfile(ctx, usr.ID, ProfileUpdate{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "new@bar.com", updated.Email)
	assert.Equal(t, usr.CreatedAt, updated.CreatedAt)

	stored, err := dir.Get(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	cur, err := dir.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, cur)
}

func TestUpdateProfile_OtherUserKeepsSession(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	other := register(t, dir, "other@bar.com", domain.RoleStudent)
	me := register(t, dir, "me@bar.com", domain.RoleStudent)

	name := "Changed"
	_, err := dir.UpdateProfile(ctx, other.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)

	cur, err := dir.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, me, cur)
}

func TestUpdateProfile_Rejections(t *testing.T) {
	ctx := context.Background()
	dir, _ := newTestDirectory(t)
	register(t, dir, "taken@bar.com", domain.RoleStudent)
	usr := register(t, dir, "me@bar.com", domain.RoleStudent)

	taken := "TAKEN@bar.com"
	_, err := dir.UpdateProfile(ctx, usr.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	same := "ME@bar.com"
	_, err = dir.UpdateProfile(ctx, usr.ID, ProfileUpdate{Email: &same})
	assert.NoError(t, err)

	blank := " "
	_, err = dir.UpdateProfile(ctx, usr.ID, ProfileUpdate{Name: &blank})
	assert.Equal(t, "validation", domain.Code(err))

	_, err = dir.UpdateProfile(ctx, "missing", ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
