package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Collection names one group of documents.
type Collection string

const (
	Users       Collection = "users"
	Courses     Collection = "courses"
	Progress    Collection = "progress"
	Credentials Collection = "credentials"
)

// CurrentUserKey is the slot holding the signed-in user, if any.
const CurrentUserKey = "current_user"

// Document is one serialized record.
type Document = json.RawMessage

// Reader is implemented by *Store and *Tx.
type Reader interface {
	Get(ctx context.Context, c Collection) ([]Document, error)
	GetScalar(ctx context.Context, key string) (Document, bool, error)
}

// ReadWriter is implemented by *Store and *Tx.
type ReadWriter interface {
	Reader
	Put(ctx context.Context, c Collection, items []Document) error
	SetScalar(ctx context.Context, key string, doc Document) error
}

var (
	_ ReadWriter = (*Store)(nil)
	_ ReadWriter = (*Tx)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type docs struct {
	q      querier
	logger *slog.Logger
}

func (d docs) log() *slog.Logger { return d.logger }

// Get returns every document in c. An absent collection is empty; so is one
// whose stored body does not decode.
func (d docs) Get(ctx context.Context, c Collection) ([]Document, error) {
	var body string
	err := d.q.QueryRowContext(ctx, `SELECT body FROM collections WHERE name = ?`, string(c)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c, err)
	}

	var items []Document
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		d.logger.Warn("discarding malformed collection", "collection", string(c), "error", err)
		return []Document{}, nil
	}
	if items == nil {
		items = []Document{}
	}
	return items, nil
}

// Put replaces the whole of c with items.
func (d docs) Put(ctx context.Context, c Collection, items []Document) error {
	if items == nil {
		items = []Document{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("put %s: %w", c, err)
	}
	_, err = d.q.ExecContext(ctx, `
		INSERT INTO collections (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(c), string(body), timestamp())
	if err != nil {
		return fmt.Errorf("put %s: %w", c, err)
	}
	return nil
}

// GetScalar returns the document stored under key. A slot that does not
// decode as JSON reads as absent.
func (d docs) GetScalar(ctx context.Context, key string) (Document, bool, error) {
	var body string
	err := d.q.QueryRowContext(ctx, `SELECT body FROM slots WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get slot %s: %w", key, err)
	}
	if !json.Valid([]byte(body)) {
		d.logger.Warn("discarding malformed slot", "key", key)
		return nil, false, nil
	}
	return Document(body), true, nil
}

// SetScalar stores doc under key. A nil doc removes the slot.
func (d docs) SetScalar(ctx context.Context, key string, doc Document) error {
	if doc == nil {
		if _, err := d.q.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
			return fmt.Errorf("clear slot %s: %w", key, err)
		}
		return nil
	}
	if !json.Valid(doc) {
		return fmt.Errorf("set slot %s: invalid JSON document", key)
	}
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO slots (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, key, string(doc), timestamp())
	if err != nil {
		return fmt.Errorf("set slot %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every collection and slot.
func (d docs) ClearAll(ctx context.Context) error {
	for _, table := range []string{"collections", "slots"} {
		if _, err := d.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
