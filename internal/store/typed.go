package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// loggerOf returns the logger r reports recovered problems to.
func loggerOf(r Reader) *slog.Logger {
	if l, ok := r.(interface{ log() *slog.Logger }); ok {
		return l.log()
	}
	return slog.Default()
}

// List decodes every document in c into a T. If any document fails to
// decode the collection is treated as empty and logged at Warn, matching
// Get's handling of a malformed body.
func List[T any](ctx context.Context, r Reader, c Collection) ([]T, error) {
	items, err := r.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			loggerOf(r).Warn("discarding collection with malformed document", "collection", string(c), "error", err)
			return []T{}, nil
		}
		out = append(out, v)
	}
	return out, nil
}

// Replace encodes values and overwrites c with them.
func Replace[T any](ctx context.Context, w ReadWriter, c Collection, values []T) error {
	items := make([]Document, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		items = append(items, data)
	}
	return w.Put(ctx, c, items)
}

// Upsert replaces the first element of c for which match returns true with
// v, or appends v when nothing matches. Order is otherwise preserved.
func Upsert[T any](ctx context.Context, rw ReadWriter, c Collection, v T, match func(T) bool) error {
	values, err := List[T](ctx, rw, c)
	if err != nil {
		return err
	}
	replaced := false
	for i := range values {
		if match(values[i]) {
			values[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		values = append(values, v)
	}
	return Replace(ctx, rw, c, values)
}

// Find returns the first element of c for which match returns true.
func Find[T any](ctx context.Context, r Reader, c Collection, match func(T) bool) (T, bool, error) {
	var zero T
	values, err := List[T](ctx, r, c)
	if err != nil {
		return zero, false, err
	}
	for _, v := range values {
		if match(v) {
			return v, true, nil
		}
	}
	return zero, false, nil
}

// Load decodes the slot stored under key.
func Load[T any](ctx context.Context, r Reader, key string) (T, bool, error) {
	var v T
	doc, ok, err := r.GetScalar(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(doc, &v); err != nil {
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// Save encodes v into the slot under key.
func Save[T any](ctx context.Context, w ReadWriter, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	return w.SetScalar(ctx, key, data)
}
