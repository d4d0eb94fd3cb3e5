// Package identity manages users, their credentials and the signed-in
// session slot.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

// Directory is the identity component. It owns the users and credentials
// collections and the current-user slot.
type Directory struct {
	store  *store.Store
	ids    domain.IDGenerator
	clock  domain.Clock
	cost   int
	logger *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

func WithIDGenerator(g domain.IDGenerator) Option { return func(d *Directory) { d.ids = g } }
func WithClock(c domain.Clock) Option             { return func(d *Directory) { d.clock = c } }
func WithLogger(l *slog.Logger) Option            { return func(d *Directory) { d.logger = l } }

// WithBcryptCost sets the cost used to hash new passwords. Values outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(d *Directory) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		d.cost = cost
	}
}

func New(st *store.Store, opts ...Option) *Directory {
	d := &Directory{
		store:  st,
		ids:    domain.UUIDv7Generator{},
		clock:  domain.SystemClock{},
		cost:   bcrypt.DefaultCost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Session is the signed-in user as of the last register, login or restore.
type Session struct {
	User domain.User
}

// RegisterInput contains information needed to create a new User.
type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Name     string      `json:"name" validate:"required"`
	Role     domain.Role `json:"role" validate:"required,oneof=student instructor"`
}

// ProfileUpdate lists the fields a user may change. Nil fields are kept.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// FindByEmail looks a user up by normalized email. An empty email never
// matches.
func (d *Directory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return findByEmail(ctx, d.store, email)
}

// Get returns the user with the given id.
func (d *Directory) Get(ctx context.Context, id string) (domain.User, error) {
	return Lookup(ctx, d.store, id)
}

func (d *Directory) List(ctx context.Context) ([]domain.User, error) {
	return store.List[domain.User](ctx, d.store, store.Users)
}

// SaveUser upserts u by id. Email uniqueness is not checked here; only
// Register and UpdateProfile enforce it.
func (d *Directory) SaveUser(ctx context.Context, u domain.User) error {
	return d.store.Update(ctx, func(tx *store.Tx) error {
		return PutUser(ctx, tx, u)
	})
}

// Register creates a user, stores its password hash and signs it in.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, d.cost)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	usr := domain.User{
		ID:              d.ids.Generate(),
		Email:           in.Email,
		Name:            in.Name,
		Role:            in.Role,
		EnrolledCourses: []string{},
		CreatedAt:       d.clock.Now(),
	}

	err = d.store.Update(ctx, func(tx *store.Tx) error {
		if err := checkEmailUnique(ctx, tx, usr.Email, ""); err != nil {
			return err
		}
		if err := PutUser(ctx, tx, usr); err != nil {
			return err
		}
		if err := putCredential(ctx, tx, domain.Credential{UserID: usr.ID, PasswordHash: hash}); err != nil {
			return err
		}
		return store.Save(ctx, tx, store.CurrentUserKey, usr)
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("user registered", "user_id", usr.ID, "role", usr.Role)
	return &Session{User: usr}, nil
}

// Login signs in the user with the given email after checking the password.
// An unknown email returns domain.ErrNotFound and leaves the session untouched.
func (d *Directory) Login(ctx context.Context, email, password string) (*Session, error) {
	usr, err := d.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	cred, ok, err := store.Find(ctx, d.store, store.Credentials, func(c domain.Credential) bool {
		return c.UserID == usr.ID
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		d.logger.Warn("login refused: no credential on record", "user_id", usr.ID)
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := store.Save(ctx, d.store, store.CurrentUserKey, usr); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	d.logger.Debug("user signed in", "user_id", usr.ID)
	return &Session{User: usr}, nil
}

// Logout clears the session slot.
func (d *Directory) Logout(ctx context.Context) error {
	if err := d.store.SetScalar(ctx, store.CurrentUserKey, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser returns the user in the session slot.
func (d *Directory) CurrentUser(ctx context.Context) (domain.User, error) {
	usr, ok, err := store.Load[domain.User](ctx, d.store, store.CurrentUserKey)
	if err != nil {
		return domain.User{}, fmt.Errorf("current user: %w", err)
	}
	if !ok {
		return domain.User{}, domain.ErrNoSession
	}
	return usr, nil
}

// Restore rebuilds the session left behind by a previous process.
func (d *Directory) Restore(ctx context.Context) (*Session, error) {
	usr, err := d.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{User: usr}, nil
}

// UpdateProfile merges upd into the stored user and refreshes the session
// copy when it holds the same user.
func (d *Directory) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	var updated domain.User
	err := d.store.Update(ctx, func(tx *store.Tx) error {
		usr, err := Lookup(ctx, tx, userID)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return domain.NewValidationError(errors.New("name is required"),
					domain.FieldError{Field: "name", Error: "this field is required"})
			}
			usr.Name = name
		}
		if upd.Email != nil {
			email := domain.NormalizeEmail(*upd.Email)
			if err := domain.Validate(emailInput{Email: email}); err != nil {
				return err
			}
			if err := checkEmailUnique(ctx, tx, email, usr.ID); err != nil {
				return err
			}
			usr.Email = email
		}

		if err := PutUser(ctx, tx, usr); err != nil {
			return err
		}
		updated = usr
		return SyncSession(ctx, tx, usr)
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// SetPassword replaces the stored password hash for userID.
func (d *Directory) SetPassword(ctx context.Context, userID, password string) error {
	if password == "" {
		return domain.NewValidationError(errors.New("password is required"),
			domain.FieldError{Field: "password", Error: "this field is required"})
	}
	hash, err := HashPassword(password, d.cost)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return d.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := Lookup(ctx, tx, userID); err != nil {
			return err
		}
		return putCredential(ctx, tx, domain.Credential{UserID: userID, PasswordHash: hash})
	})
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}
