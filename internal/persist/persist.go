// Package persist holds the mutation outcome type and the JSON round-trip
// helpers shared by the observable stores.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/kv"
)

var (
	// ErrInvalidInput marks a mutation rejected before any state change.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersist is matched by every *Error.
	ErrPersist = errors.New("persistence failure")
)

// Result reports the outcome of a store mutation. Changed is true when the
// in-memory state changed. Err carries either a validation rejection
// (ErrInvalidInput, nothing changed) or a persistence failure (*Error, the
// in-memory change was still applied). Ignoring a Result is always safe.
type Result struct {
	Changed bool
	Err     error
}

// OK reports whether the mutation completed without error.
func (r Result) OK() bool { return r.Err == nil }

// Invalid builds a rejection Result.
func Invalid(format string, args ...any) Result {
	return Result{Err: fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))}
}

// Error wraps a failed read or write against the kv store.
type Error struct {
	Op  string // load|save
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersist) hold for any *Error.
func (e *Error) Is(target error) bool { return target == ErrPersist }

// LoadJSON decodes the value at key into v. A nil store or a missing key
// leaves v untouched and returns (false, nil). Decode failures are returned
// as *Error so callers can fall back to an empty state.
func LoadJSON(ctx context.Context, store kv.Store, key string, v any) (bool, error) {
	if store == nil {
		return false, nil
	}
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &Error{Op: "load", Key: key, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &Error{Op: "load", Key: key, Err: err}
	}
	return true, nil
}

// SaveJSON encodes v and writes it to key, overwriting any previous value.
// A nil store is a no-op.
func SaveJSON(ctx context.Context, store kv.Store, key string, v any) error {
	if store == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}
	return nil
}
