// Package core defines the key/value persistence abstraction shared by the
// kv facade and its infra backends.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key/value backend implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory (tests, ephemeral sessions)
	DriverFS       Driver = "fs"       // local filesystem (default, dev)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
	DriverS3       Driver = "s3"       // S3 / MinIO compatible
)

// Store is a durable byte store keyed by string. Semantics mirror browser
// local storage: Put overwrites, Get of a missing key reports ErrNotFound.
type Store interface {
	// Get returns the value stored at key or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces the value at key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Returns (false, nil) if it was absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns keys with the given prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Driver returns the backend identifier.
	Driver() Driver
}

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnsupported is returned when an optional capability is not available.
	ErrUnsupported = errors.New("kv: unsupported operation")
	// ErrEmptyKey is returned for blank keys.
	ErrEmptyKey = errors.New("kv: empty key")
)
